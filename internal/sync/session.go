package sync

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/iota-pi/flock-sub001/internal/crypto/vault"
	"github.com/iota-pi/flock-sub001/internal/model"
)

// Record is one decrypted item as the client sees it. Data stays raw JSON so
// the engine never interprets record contents.
type Record struct {
	ID       string          `json:"id"`
	Type     model.ItemType  `json:"type"`
	Data     json.RawMessage `json:"data"`
	Modified int64           `json:"modified"`
}

// Session owns the derived key for the lifetime of a login. The key is never
// persisted; dropping the session drops the key.
type Session struct {
	AccountID string
	key       vault.Key
}

// NewSession derives the account key from the password and the server-held
// salt (base64).
func NewSession(accountID, password, salt string) (*Session, error) {
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("bad salt encoding: %w", err)
	}
	key, err := vault.DeriveKey(password, rawSalt)
	if err != nil {
		return nil, err
	}
	return &Session{AccountID: accountID, key: key}, nil
}

// NewSalt generates a fresh account salt for signup, base64-encoded.
func NewSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// AuthToken derives the password-equivalent credential for this session's key.
func (s *Session) AuthToken() (string, error) {
	return vault.DeriveAuthToken(s.key)
}

// EncryptRecord turns a plaintext record into a wire item with a fresh nonce.
func (s *Session) EncryptRecord(rec Record) (model.VaultItem, error) {
	cipher, iv, err := vault.Encrypt(rec.Data, s.key)
	if err != nil {
		return model.VaultItem{}, err
	}
	return model.VaultItem{
		Account:  s.AccountID,
		ID:       rec.ID,
		Cipher:   cipher,
		IV:       iv,
		Type:     rec.Type,
		Modified: rec.Modified,
	}, nil
}

// DecryptItem reverses EncryptRecord. Errors keep the decryption/
// deserialization distinction intact.
func (s *Session) DecryptItem(it model.VaultItem) (Record, error) {
	var data json.RawMessage
	if err := vault.DecryptObject(it.Cipher, it.IV, s.key, &data); err != nil {
		return Record{}, err
	}
	return Record{ID: it.ID, Type: it.Type, Data: data, Modified: it.Modified}, nil
}

// EncryptMetadata encrypts arbitrary account settings for the PATCH endpoint.
func (s *Session) EncryptMetadata(v any) (cipher, iv string, err error) {
	return vault.EncryptObject(v, s.key)
}

// DecryptMetadata decrypts the account settings blob into out.
func (s *Session) DecryptMetadata(cipher, iv string, out any) error {
	return vault.DecryptObject(cipher, iv, s.key, out)
}
