// Package token generates and verifies admin API tokens.
//
// Tokens are random base64-URL strings. The server never keeps the plaintext
// token around after startup: it keeps an HMAC-SHA256 hash of it and compares
// hashes in constant time.
//
//	v, err := token.NewVerifier(os.Getenv("CONVERGE_ADMIN_TOKEN"), secret)
//	if err != nil {
//	    return err
//	}
//	if !v.Verify(r.Header.Get("X-Converge-Admin-Token")) {
//	    // reject
//	}
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// MinTokenLength is the minimum accepted token length.
	MinTokenLength = 41

	// DefaultTokenBytes is the number of random bytes in a generated token.
	// 32 bytes base64-encode to 44 characters.
	DefaultTokenBytes = 32

	// MinSecretLength is the minimum HMAC secret length.
	MinSecretLength = 32
)

var (
	// ErrTokenTooShort indicates a token below MinTokenLength.
	ErrTokenTooShort = errors.New("token too short")

	// ErrSecretTooShort indicates an HMAC secret below MinSecretLength.
	ErrSecretTooShort = errors.New("HMAC secret too short")
)

// Generate creates a random token of DefaultTokenBytes bytes.
func Generate() (string, error) {
	b := make([]byte, DefaultTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Hash returns the hex-encoded HMAC-SHA256 of token keyed with secret.
func Hash(token, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

// CheckLength returns ErrTokenTooShort for tokens below MinTokenLength.
func CheckLength(token string) error {
	if len(token) < MinTokenLength {
		return fmt.Errorf("%w: got %d characters, need at least %d", ErrTokenTooShort, len(token), MinTokenLength)
	}
	return nil
}

// Verifier checks provided tokens against one stored hash.
type Verifier struct {
	secret string
	hash   string
}

// NewVerifier hashes token with secret and returns a verifier for it.
func NewVerifier(token, secret string) (*Verifier, error) {
	if err := CheckLength(token); err != nil {
		return nil, err
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrSecretTooShort, len(secret), MinSecretLength)
	}
	return &Verifier{secret: secret, hash: Hash(token, secret)}, nil
}

// Verify reports whether provided matches the stored token.
// The comparison runs in constant time.
func (v *Verifier) Verify(provided string) bool {
	if len(provided) < MinTokenLength {
		return false
	}
	return hmac.Equal([]byte(Hash(provided, v.secret)), []byte(v.hash))
}
