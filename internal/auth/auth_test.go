package auth

import (
	"testing"

	"github.com/google/uuid"
)

// TestTokenRoundTrip issue and verify against the in-memory key pair.
func TestTokenRoundTrip(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	userID := uuid.New()
	token, err := IssueToken(userID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	got, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if got != userID {
		t.Fatalf("expected %v, got %v", userID, got)
	}

	if _, err := VerifyToken("garbage"); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := VerifyToken(token + "x"); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized for tampered token, got %v", err)
	}
}

// TestPasswordHashing hash and verify, wrong password, malformed hash.
func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("wrong", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}

	if _, err := VerifyPassword("x", "not-a-hash"); err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}

	// salts differ between hashes of the same password
	hash2, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == hash2 {
		t.Fatalf("two hashes of the same password are identical")
	}
}

// TestHashParamsParallelism argon2 panics on a parallelism of 0, so the
// defaults must stay above it regardless of the host's CPU count.
func TestHashParamsParallelism(t *testing.T) {
	if defaultParams.parallelism < 1 {
		t.Fatalf("parallelism %d would panic argon2", defaultParams.parallelism)
	}
}
