package vault

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/iota-pi/flock-sub001/internal/errs"
)

func testKey(t *testing.T) Key {
	t.Helper()
	key, err := DeriveKey("correct horse battery staple", []byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	return key
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")
	k1, err := DeriveKey("pw", salt)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, err := DeriveKey("pw", salt)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("same inputs produced different keys")
	}
	if len(k1) != KeyLen {
		t.Errorf("key length = %d, want %d", len(k1), KeyLen)
	}
}

func TestDeriveKeyInputSensitivity(t *testing.T) {
	salt := []byte("0123456789abcdef")
	base, _ := DeriveKey("pw", salt)
	otherPw, _ := DeriveKey("pw2", salt)
	otherSalt, _ := DeriveKey("pw", []byte("fedcba9876543210"))
	if bytes.Equal(base, otherPw) {
		t.Error("different passwords produced the same key")
	}
	if bytes.Equal(base, otherSalt) {
		t.Error("different salts produced the same key")
	}
}

func TestDeriveAuthTokenStable(t *testing.T) {
	key := testKey(t)
	t1, err := DeriveAuthToken(key)
	if err != nil {
		t.Fatalf("DeriveAuthToken: %v", err)
	}
	t2, _ := DeriveAuthToken(key)
	if t1 != t2 {
		t.Error("auth token not deterministic for the same key")
	}
	raw, err := base64.RawURLEncoding.DecodeString(t1)
	if err != nil {
		t.Fatalf("auth token is not base64url: %v", err)
	}
	if bytes.Equal(raw, key) {
		t.Error("auth token equals the key")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)
	plain := []byte(`{"name":"Ada Lovelace","note":"follow up"}`)
	cipher, iv, err := Encrypt(plain, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(cipher, iv, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("round trip mismatch: got %q", got)
	}
}

func TestEncryptFreshNonce(t *testing.T) {
	key := testKey(t)
	plain := []byte("same plaintext")
	c1, iv1, err := Encrypt(plain, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	c2, iv2, err := Encrypt(plain, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if iv1 == iv2 {
		t.Error("nonce reused across calls")
	}
	if c1 == c2 {
		t.Error("identical ciphertext for two encryptions of the same plaintext")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	key := testKey(t)
	other, err := DeriveKey("a different password", []byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	cipher, iv, err := Encrypt([]byte("secret"), key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(cipher, iv, other); !errors.Is(err, errs.ErrDecryption) {
		t.Errorf("wrong key: err = %v, want ErrDecryption", err)
	}
}

func TestDecryptTampered(t *testing.T) {
	key := testKey(t)
	cipher, iv, err := Encrypt([]byte("secret"), key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(cipher)
	raw[0] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)
	if _, err := Decrypt(tampered, iv, key); !errors.Is(err, errs.ErrDecryption) {
		t.Errorf("tampered cipher: err = %v, want ErrDecryption", err)
	}
}

func TestDecryptMalformedInput(t *testing.T) {
	key := testKey(t)
	cases := []struct {
		name       string
		cipher, iv string
	}{
		{"bad cipher base64", "%%%", base64.StdEncoding.EncodeToString(make([]byte, 24))},
		{"bad iv base64", base64.StdEncoding.EncodeToString([]byte("x")), "%%%"},
		{"short iv", base64.StdEncoding.EncodeToString([]byte("x")), base64.StdEncoding.EncodeToString([]byte("short"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decrypt(tc.cipher, tc.iv, key); !errors.Is(err, errs.ErrDecryption) {
				t.Errorf("err = %v, want ErrDecryption", err)
			}
		})
	}
}

func TestObjectRoundTrip(t *testing.T) {
	key := testKey(t)
	in := map[string]any{"name": "Grace", "groups": []any{"choir"}}
	cipher, iv, err := EncryptObject(in, key)
	if err != nil {
		t.Fatalf("EncryptObject: %v", err)
	}
	var out map[string]any
	if err := DecryptObject(cipher, iv, key, &out); err != nil {
		t.Fatalf("DecryptObject: %v", err)
	}
	if out["name"] != "Grace" {
		t.Errorf("out = %v", out)
	}
}

func TestDecryptObjectBadJSON(t *testing.T) {
	key := testKey(t)
	cipher, iv, err := Encrypt([]byte("not json"), key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	var out map[string]any
	err = DecryptObject(cipher, iv, key, &out)
	if !errors.Is(err, errs.ErrDeserialization) {
		t.Errorf("err = %v, want ErrDeserialization", err)
	}
	if errors.Is(err, errs.ErrDecryption) {
		t.Error("deserialization failure must not look like a decryption failure")
	}
}
