package token

import (
	"errors"
	"strings"
	"testing"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerate(t *testing.T) {
	token1, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(token1) < MinTokenLength {
		t.Errorf("Generate() token length = %d, want >= %d", len(token1), MinTokenLength)
	}
	if strings.ContainsAny(token1, "+/") {
		t.Errorf("Generate() token is not URL-safe: %q", token1)
	}

	token2, _ := Generate()
	if token1 == token2 {
		t.Error("Generate() produced duplicate tokens")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash("token", testSecret)
	h2 := Hash("token", testSecret)
	if h1 != h2 {
		t.Error("Hash() is not deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("Hash() length = %d, want 64", len(h1))
	}
	if Hash("token", testSecret+"x") == h1 {
		t.Error("Hash() ignored the secret")
	}
}

func TestVerifier(t *testing.T) {
	tok, _ := Generate()

	v, err := NewVerifier(tok, testSecret)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	if !v.Verify(tok) {
		t.Error("Expected generated token to verify")
	}

	other, _ := Generate()
	if v.Verify(other) {
		t.Error("Expected different token to be rejected")
	}
	if v.Verify("") {
		t.Error("Expected empty token to be rejected")
	}
}

func TestNewVerifier_Errors(t *testing.T) {
	tok, _ := Generate()

	if _, err := NewVerifier("short", testSecret); !errors.Is(err, ErrTokenTooShort) {
		t.Errorf("Expected ErrTokenTooShort, got %v", err)
	}
	if _, err := NewVerifier(tok, "short"); !errors.Is(err, ErrSecretTooShort) {
		t.Errorf("Expected ErrSecretTooShort, got %v", err)
	}
}
