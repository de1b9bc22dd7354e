// Package crypto implements server-side credential hashing and secret generation.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// AccountIDBytes sets account-id entropy (hex-encoded, so 2x characters).
const AccountIDBytes = 8

// SessionSecretBytes sets session-secret entropy.
const SessionSecretBytes = 32

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashToken returns the SHA-256 digest of a submitted credential. The inputs
// are already KDF outputs or high-entropy random secrets, so a plain digest
// (no stretching) is sufficient for storage.
func HashToken(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

// VerifyToken compares a submitted credential against a stored digest without
// leaking length or position information.
func VerifyToken(token string, expected []byte) bool {
	got := HashToken(token)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// NewAccountID generates a candidate account id. Uniqueness is enforced by
// the caller's collision-checked allocation loop, not here.
func NewAccountID() (string, error) {
	b, err := RandBytes(AccountIDBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewSessionSecret generates a fresh session bearer secret.
func NewSessionSecret() (string, error) {
	b, err := RandBytes(SessionSecretBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
