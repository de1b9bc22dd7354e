package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
)

// ItemStore implements storage.ItemStore using PostgreSQL.
type ItemStore struct{ db *DB }

// NewItemStore constructs an item store.
func NewItemStore(db *DB) *ItemStore { return &ItemStore{db: db} }

// Get returns a single item by id.
func (r *ItemStore) Get(ctx context.Context, account, item string) (*model.VaultItem, error) {
	const q = `
SELECT account, id, cipher, iv, type, modified
FROM items WHERE account=$1 AND id=$2`
	row := r.db.Pool.QueryRow(ctx, q, account, item)
	var it model.VaultItem
	if err := row.Scan(&it.Account, &it.ID, &it.Cipher, &it.IV, &it.Type, &it.Modified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// Set performs an unconditional upsert. There is no version token: concurrent
// writers to the same id overwrite each other, last writer wins.
func (r *ItemStore) Set(ctx context.Context, it *model.VaultItem) error {
	const q = `
INSERT INTO items (account, id, cipher, iv, type, modified)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (account, id)
DO UPDATE SET cipher=EXCLUDED.cipher, iv=EXCLUDED.iv, type=EXCLUDED.type, modified=EXCLUDED.modified`
	_, err := r.db.Pool.Exec(ctx, q, it.Account, it.ID, it.Cipher, it.IV, it.Type.String(), it.Modified)
	return err
}

// Delete removes an item. Deleting a missing item is not an error.
func (r *ItemStore) Delete(ctx context.Context, account, item string) error {
	const q = `DELETE FROM items WHERE account=$1 AND id=$2`
	_, err := r.db.Pool.Exec(ctx, q, account, item)
	return err
}

// FetchMany returns the items matching the given ids.
func (r *ItemStore) FetchMany(ctx context.Context, account string, ids []string) ([]model.VaultItem, error) {
	const q = `
SELECT account, id, cipher, iv, type, modified
FROM items
WHERE account=$1 AND id = ANY($2)
ORDER BY modified ASC`
	rows, err := r.db.Pool.Query(ctx, q, account, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// FetchAll returns items with modified strictly greater than since. The
// strict comparison is load-bearing: >= would re-deliver the boundary item on
// every incremental pull.
func (r *ItemStore) FetchAll(ctx context.Context, account string, since int64) ([]model.VaultItem, error) {
	const q = `
SELECT account, id, cipher, iv, type, modified
FROM items
WHERE account=$1 AND modified>$2
ORDER BY modified ASC`
	rows, err := r.db.Pool.Query(ctx, q, account, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows pgx.Rows) ([]model.VaultItem, error) {
	out := []model.VaultItem{}
	for rows.Next() {
		var it model.VaultItem
		if err := rows.Scan(&it.Account, &it.ID, &it.Cipher, &it.IV, &it.Type, &it.Modified); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
