package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"testing"
)

func TestHashVerifyToken(t *testing.T) {
	h := HashToken("some-auth-token")
	if !VerifyToken("some-auth-token", h) {
		t.Error("stored credential failed to verify")
	}
	if VerifyToken("some-other-token", h) {
		t.Error("wrong credential verified")
	}
	if VerifyToken("", h) {
		t.Error("empty credential verified")
	}
}

func TestHashTokenDigestOnly(t *testing.T) {
	h := HashToken("token")
	if len(h) != 32 {
		t.Fatalf("digest length = %d, want 32", len(h))
	}
	if bytes.Contains(h, []byte("token")) {
		t.Error("digest leaks the input")
	}
}

func TestNewAccountID(t *testing.T) {
	a, err := NewAccountID()
	if err != nil {
		t.Fatalf("NewAccountID: %v", err)
	}
	raw, err := hex.DecodeString(a)
	if err != nil {
		t.Fatalf("account id is not hex: %v", err)
	}
	if len(raw) != AccountIDBytes {
		t.Errorf("account id entropy = %d bytes, want %d", len(raw), AccountIDBytes)
	}
	b, _ := NewAccountID()
	if a == b {
		t.Error("two generated ids collided")
	}
}

func TestNewSessionSecret(t *testing.T) {
	s, err := NewSessionSecret()
	if err != nil {
		t.Fatalf("NewSessionSecret: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("session secret is not base64url: %v", err)
	}
	if len(raw) != SessionSecretBytes {
		t.Errorf("session secret entropy = %d bytes, want %d", len(raw), SessionSecretBytes)
	}
	s2, _ := NewSessionSecret()
	if s == s2 {
		t.Error("two generated secrets collided")
	}
}

func TestRandBytes(t *testing.T) {
	b, err := RandBytes(16)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(b) != 16 {
		t.Errorf("len = %d, want 16", len(b))
	}
}
