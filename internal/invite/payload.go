package invite

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PayloadType marks a payload as a session-join code. Anything else is
// rejected at decode time.
const PayloadType = "session_join"

// DefaultMaxAge is how long a scanned payload stays valid.
const DefaultMaxAge = 24 * time.Hour

var (
	// ErrInvalidPayload means the scanned data is not a session-join payload.
	ErrInvalidPayload = errors.New("invite: invalid payload")
	// ErrExpired means the payload was well-formed but older than the
	// validity window.
	ErrExpired = errors.New("invite: payload expired")
)

// Payload is the structured data embedded in a session QR code.
type Payload struct {
	SessionID   uuid.UUID `json:"session_id"`
	SessionCode string    `json:"session_code"`
	IssuedAt    int64     `json:"issued_at"` // unix millis
	Type        string    `json:"type"`
}

// NewPayload stamps a payload for the given session at the current instant.
func NewPayload(sessionID uuid.UUID, code string) Payload {
	return Payload{
		SessionID:   sessionID,
		SessionCode: code,
		IssuedAt:    time.Now().UnixMilli(),
		Type:        PayloadType,
	}
}

// Encode serializes the payload to the JSON string a QR encoder renders.
func Encode(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses scanned QR data and checks its validity window. Malformed or
// mistyped data returns ErrInvalidPayload; a payload older than maxAge
// returns ErrExpired along with the parsed payload so the caller can still
// show which session it referred to. Pass maxAge <= 0 for DefaultMaxAge.
func Decode(data string, maxAge time.Duration) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Payload{}, ErrInvalidPayload
	}
	if p.Type != PayloadType || p.SessionID == uuid.Nil || p.SessionCode == "" || p.IssuedAt <= 0 {
		return Payload{}, ErrInvalidPayload
	}

	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	issued := time.UnixMilli(p.IssuedAt)
	if time.Since(issued) > maxAge {
		return p, ErrExpired
	}
	return p, nil
}
