package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
)

// SubscriptionStore implements storage.SubscriptionStore using PostgreSQL.
type SubscriptionStore struct{ db *DB }

// NewSubscriptionStore constructs a subscription store.
func NewSubscriptionStore(db *DB) *SubscriptionStore { return &SubscriptionStore{db: db} }

// Get selects a subscription by id.
func (r *SubscriptionStore) Get(ctx context.Context, account, id string) (*model.Subscription, error) {
	const q = `
SELECT account, id, hours, timezone, push_token, failures
FROM subscriptions WHERE account=$1 AND id=$2`
	row := r.db.Pool.QueryRow(ctx, q, account, id)
	var s model.Subscription
	if err := row.Scan(&s.Account, &s.ID, &s.Hours, &s.Timezone, &s.Token, &s.Failures); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Set upserts a subscription row.
func (r *SubscriptionStore) Set(ctx context.Context, sub *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (account, id, hours, timezone, push_token, failures)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (account, id)
DO UPDATE SET hours=EXCLUDED.hours, timezone=EXCLUDED.timezone, push_token=EXCLUDED.push_token, failures=EXCLUDED.failures`
	_, err := r.db.Pool.Exec(ctx, q, sub.Account, sub.ID, sub.Hours, sub.Timezone, sub.Token, sub.Failures)
	return err
}

// Delete removes a subscription. Idempotent.
func (r *SubscriptionStore) Delete(ctx context.Context, account, id string) error {
	const q = `DELETE FROM subscriptions WHERE account=$1 AND id=$2`
	_, err := r.db.Pool.Exec(ctx, q, account, id)
	return err
}
