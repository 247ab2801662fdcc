// Package invite issues the short codes sessions are joined by and encodes
// the payload embedded in a scannable QR image. Rendering the image itself is
// a client concern; this package only defines the data that goes in and out.
package invite

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
)

// CodeLength is the length of a session invite code.
const CodeLength = 6

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxAttempts bounds collision retries in NewCode. With 36^6 possible codes a
// handful of attempts is plenty.
const maxAttempts = 10

// ErrCodeSpaceExhausted is returned when every generated candidate collided.
var ErrCodeSpaceExhausted = errors.New("invite: could not generate a unique code")

// CodeExistsFunc reports whether a candidate code is already taken.
type CodeExistsFunc func(ctx context.Context, code string) (bool, error)

// randomCode returns a fresh candidate code from crypto/rand.
func randomCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("invite: rand failed: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// NewCode generates a collision-checked invite code. exists is consulted for
// each candidate; generation fails only if maxAttempts candidates all
// collide or the check itself errors.
func NewCode(ctx context.Context, exists CodeExistsFunc) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("invite: collision check failed: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
