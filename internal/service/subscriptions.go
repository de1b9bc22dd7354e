package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
	"github.com/iota-pi/flock-sub001/internal/storage"
)

// SubscriptionService manages plaintext push-delivery preferences.
type SubscriptionService interface {
	Get(ctx context.Context, account, id string) (*model.Subscription, error)
	Set(ctx context.Context, sub *model.Subscription) error
	Delete(ctx context.Context, account, id string) error
}

type SubscriptionServiceImpl struct {
	subs storage.SubscriptionStore
}

// NewSubscriptionService constructs SubscriptionService.
func NewSubscriptionService(subs storage.SubscriptionStore) *SubscriptionServiceImpl {
	return &SubscriptionServiceImpl{subs: subs}
}

// Get returns a subscription by id.
func (s *SubscriptionServiceImpl) Get(ctx context.Context, account, id string) (*model.Subscription, error) {
	if err := validateSubID(id); err != nil {
		return nil, err
	}
	return s.subs.Get(ctx, account, id)
}

// Set validates delivery preferences and upserts the subscription.
func (s *SubscriptionServiceImpl) Set(ctx context.Context, sub *model.Subscription) error {
	if err := validateSubID(sub.ID); err != nil {
		return err
	}
	for _, h := range sub.Hours {
		if h < 0 || h > 23 {
			return fmt.Errorf("%w: hour %d out of range", errs.ErrValidation, h)
		}
	}
	if sub.Token == "" {
		return fmt.Errorf("%w: empty push token", errs.ErrValidation)
	}
	if sub.Failures < 0 {
		return fmt.Errorf("%w: negative failure count", errs.ErrValidation)
	}
	return s.subs.Set(ctx, sub)
}

// Delete removes a subscription. Idempotent.
func (s *SubscriptionServiceImpl) Delete(ctx context.Context, account, id string) error {
	if err := validateSubID(id); err != nil {
		return err
	}
	return s.subs.Delete(ctx, account, id)
}

// Subscription ids are client-generated UUIDs.
func validateSubID(id string) error {
	if _, err := uuid.FromString(id); err != nil {
		return fmt.Errorf("%w: bad subscription id", errs.ErrValidation)
	}
	return nil
}
