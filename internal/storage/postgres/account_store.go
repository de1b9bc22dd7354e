package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
type AccountStore struct{ db *DB }

// NewAccountStore constructs an account store.
func NewAccountStore(db *DB) *AccountStore { return &AccountStore{db: db} }

// Create inserts a new account row. An id collision maps to ErrAlreadyExists
// so the allocation loop can retry.
func (r *AccountStore) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, salt, auth_hash, session_hash, metadata_cipher, metadata_iv)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Salt, a.AuthHash, a.SessionHash, a.MetadataCipher, a.MetadataIV)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Get selects an account by id.
func (r *AccountStore) Get(ctx context.Context, id string) (*model.Account, error) {
	const q = `
SELECT id, salt, auth_hash, session_hash, metadata_cipher, metadata_iv, created_at
FROM accounts WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var a model.Account
	if err := row.Scan(&a.ID, &a.Salt, &a.AuthHash, &a.SessionHash, &a.MetadataCipher, &a.MetadataIV, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// UpdateSession replaces the stored session hash.
func (r *AccountStore) UpdateSession(ctx context.Context, id string, sessionHash []byte) error {
	const q = `UPDATE accounts SET session_hash=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, sessionHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UpdateMetadata replaces the encrypted settings blob.
func (r *AccountStore) UpdateMetadata(ctx context.Context, id, cipher, iv string) error {
	const q = `UPDATE accounts SET metadata_cipher=$2, metadata_iv=$3 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, cipher, iv)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
