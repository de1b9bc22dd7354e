// Package vault contains the client-side cryptographic core: password-derived
// keys and authenticated encryption of items and account metadata. Key
// material lives in memory for the lifetime of a session and is never
// transmitted or persisted.
package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/iota-pi/flock-sub001/internal/errs"
)

// Params
const (
	KeyLen = 32

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

// HKDF info labels separating the encryption key from derived credentials.
const (
	infoKey  = "vault/key"
	infoAuth = "vault/auth"
)

// Key is a symmetric authenticated-encryption key derived from the account
// password. It must never leave the process.
type Key []byte

// DeriveKey derives the account key from (password, salt) with Argon2id, then
// expands it via HKDF-SHA256. Deterministic for the same inputs and not
// reversible to the password. Per-account domain separation comes from the
// random salt: the account id cannot participate because the auth token must
// be derivable at signup, before any id has been allocated.
func DeriveKey(password string, salt []byte) (Key, error) {
	base := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, KeyLen)
	r := hkdf.New(sha256.New, base, nil, []byte(infoKey))
	key := make([]byte, KeyLen)
	if _, err := r.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// DeriveAuthToken derives the password-equivalent credential sent to the
// server. One-way: the server stores only a hash of it and the key cannot be
// recovered from it.
func DeriveAuthToken(key Key) (string, error) {
	r := hkdf.New(sha256.New, key, nil, []byte(infoAuth))
	tok := make([]byte, KeyLen)
	if _, err := r.Read(tok); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(tok), nil
}

// Encrypt performs authenticated encryption with a fresh random nonce on
// every call. Cipher and nonce are returned as separate base64 values
// matching the wire format. Fails only on entropy-source failure.
func Encrypt(plaintext []byte, key Key) (cipher, iv string, err error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", errs.ErrEncryption, err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", "", fmt.Errorf("%w: %v", errs.ErrEncryption, err)
	}
	ct := aead.Seal(nil, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ct), base64.StdEncoding.EncodeToString(nonce), nil
}

// Decrypt reverses Encrypt. Any tag or key mismatch, malformed encoding
// included, surfaces as ErrDecryption so callers can distinguish a wrong
// password from a transport failure.
func Decrypt(cipher, iv string, key Key) ([]byte, error) {
	ct, err := base64.StdEncoding.DecodeString(cipher)
	if err != nil {
		return nil, fmt.Errorf("%w: bad cipher encoding", errs.ErrDecryption)
	}
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return nil, fmt.Errorf("%w: bad iv encoding", errs.ErrDecryption)
	}
	if len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: bad iv length", errs.ErrDecryption)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDecryption, err)
	}
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, errs.ErrDecryption
	}
	return pt, nil
}

// EncryptObject JSON-serializes v and encrypts it. Used for both items and
// account metadata.
func EncryptObject(v any, key Key) (cipher, iv string, err error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", "", fmt.Errorf("marshal: %w", err)
	}
	return Encrypt(b, key)
}

// DecryptObject decrypts and JSON-parses into out. A tag mismatch surfaces as
// ErrDecryption; plaintext that is not valid JSON surfaces as the distinct
// ErrDeserialization.
func DecryptObject(cipher, iv string, key Key, out any) error {
	pt, err := Decrypt(cipher, iv, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(pt, out); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDeserialization, err)
	}
	return nil
}
