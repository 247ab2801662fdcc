// Package auth issues and verifies the signed session tokens carried in the
// auth_token cookie, and hashes passwords with Argon2id.
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrUnauthorized means no valid authenticated actor could be established.
var ErrUnauthorized = errors.New("auth: unauthorized")

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long issued tokens stay valid; zero means no expiry.
	tokenTTL time.Duration
)

// DefaultTokenTTL applies when TOKEN_EXPIRE_TIME is unset.
const DefaultTokenTTL = 72 * time.Hour

// parseTokenTTL reads TOKEN_EXPIRE_TIME ("never", "0", or a Go duration).
func parseTokenTTL() error {
	raw := os.Getenv("TOKEN_EXPIRE_TIME")
	switch raw {
	case "":
		tokenTTL = DefaultTokenTTL
	case "never", "0":
		tokenTTL = 0
	default:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse TOKEN_EXPIRE_TIME: %w", err)
		}
		tokenTTL = d
	}
	return nil
}

// Init generates a fresh ed25519 key pair at startup. Tokens do not survive
// a restart; users re-authenticate.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return parseTokenTTL()
}

// InitFromPath loads a persistent ed25519 key pair from disk.
func InitFromPath(privatePath, publicPath string) error {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}
	privateKey = ed25519.PrivateKey(priv)
	publicKey = ed25519.PublicKey(pub)
	return parseTokenTTL()
}

// TokenTTLSeconds is the cookie MaxAge matching the token expiry (0 = session cookie semantics left to the browser).
func TokenTTLSeconds() int {
	return int(tokenTTL.Seconds())
}

// IssueToken signs a token with sub = userID.
func IssueToken(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{"sub": userID.String()}
	if tokenTTL > 0 {
		claims["exp"] = time.Now().Add(tokenTTL).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// VerifyToken checks the signature and expiry and returns the user ID.
func VerifyToken(tokenString string) (uuid.UUID, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil || !t.Valid {
		return uuid.Nil, ErrUnauthorized
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}
