package invite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestNewCode checks length, charset, and the collision retry loop.
func TestNewCode(t *testing.T) {
	ctx := context.Background()

	code, err := NewCode(ctx, func(ctx context.Context, c string) (bool, error) {
		return false, nil
	})
	if err != nil {
		t.Fatalf("NewCode: %v", err)
	}
	if len(code) != CodeLength {
		t.Fatalf("expected %d chars, got %q", CodeLength, code)
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			t.Fatalf("code %q contains %q outside the alphabet", code, c)
		}
	}

	// first candidate collides, second does not
	calls := 0
	code, err = NewCode(ctx, func(ctx context.Context, c string) (bool, error) {
		calls++
		return calls == 1, nil
	})
	if err != nil {
		t.Fatalf("NewCode with one collision: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 existence checks, got %d", calls)
	}

	// everything collides
	if _, err := NewCode(ctx, func(ctx context.Context, c string) (bool, error) {
		return true, nil
	}); err != ErrCodeSpaceExhausted {
		t.Fatalf("expected ErrCodeSpaceExhausted, got %v", err)
	}
}

// TestPayloadRoundTrip encodes a payload and decodes it back.
func TestPayloadRoundTrip(t *testing.T) {
	sessionID := uuid.New()
	p := NewPayload(sessionID, "ABC123")
	if p.Type != PayloadType {
		t.Fatalf("unexpected type %q", p.Type)
	}

	data, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.SessionID != sessionID || got.SessionCode != "ABC123" || got.IssuedAt != p.IssuedAt {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, p)
	}
}

// TestDecodeRejectsMalformed covers every invalid-payload shape.
func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []string{
		"not json",
		`{}`,
		`{"session_id":"` + uuid.NewString() + `","session_code":"ABC123","issued_at":0,"type":"session_join"}`,
		`{"session_id":"` + uuid.NewString() + `","session_code":"","issued_at":1,"type":"session_join"}`,
		`{"session_id":"` + uuid.NewString() + `","session_code":"ABC123","issued_at":1,"type":"something_else"}`,
	}
	for _, data := range cases {
		if _, err := Decode(data, 0); err != ErrInvalidPayload {
			t.Fatalf("Decode(%q): expected ErrInvalidPayload, got %v", data, err)
		}
	}
}

// TestDecodeExpired checks that a stale payload still identifies its session.
func TestDecodeExpired(t *testing.T) {
	p := NewPayload(uuid.New(), "ABC123")
	p.IssuedAt = time.Now().Add(-25 * time.Hour).UnixMilli()

	data, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data, 0)
	if err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if got.SessionID != p.SessionID {
		t.Fatalf("expired decode lost the session id")
	}

	// still inside a custom window
	if _, err := Decode(data, 48*time.Hour); err != nil {
		t.Fatalf("decode inside custom window: %v", err)
	}
}
