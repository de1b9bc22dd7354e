// Package service contains application services for account sessions and items.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgcrypto "github.com/iota-pi/flock-sub001/internal/crypto"
	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/limiter"
	"github.com/iota-pi/flock-sub001/internal/model"
	"github.com/iota-pi/flock-sub001/internal/storage"
)

// DefaultAllocRetries bounds the account-id allocation loop. The retry count
// is a tunable, not a protocol constant.
const DefaultAllocRetries = 16

// AuthService defines account, session, and metadata operations.
type AuthService interface {
	// CreateAccount allocates a fresh account id and stores credential hashes.
	CreateAccount(ctx context.Context, salt, authToken string) (accountID string, err error)
	// LoginWithIP applies rate limiting, verifies the auth token, and rotates
	// the session secret.
	LoginWithIP(ctx context.Context, accountID, authToken, ip string) (session string, err error)
	// Authenticate resolves a bearer header value against the stored session hash.
	Authenticate(ctx context.Context, accountID, header string) error
	// GetSalt returns the per-account KDF salt. Intentionally unauthenticated.
	GetSalt(ctx context.Context, accountID string) (string, error)
	// GetMetadata returns the encrypted settings blob.
	GetMetadata(ctx context.Context, accountID string) (cipher, iv string, err error)
	// SetMetadata replaces the encrypted settings blob.
	SetMetadata(ctx context.Context, accountID, cipher, iv string) error
}

type AuthServiceImpl struct {
	accounts     storage.AccountStore
	lim          limiter.Limiter
	allocRetries int
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(accounts storage.AccountStore, lim limiter.Limiter, allocRetries int) *AuthServiceImpl {
	if allocRetries <= 0 {
		allocRetries = DefaultAllocRetries
	}
	return &AuthServiceImpl{accounts: accounts, lim: lim, allocRetries: allocRetries}
}

// CreateAccount stores hash(authToken) and an initial session hash under a
// randomly allocated id, retrying on collision up to the configured budget.
// Not idempotent: every call creates a new account.
func (s *AuthServiceImpl) CreateAccount(ctx context.Context, salt, authToken string) (string, error) {
	if salt == "" || authToken == "" {
		return "", fmt.Errorf("%w: empty salt/authToken", errs.ErrValidation)
	}
	// The initial session secret is generated and immediately discarded; the
	// account starts with no usable session until the first login.
	initial, err := pkgcrypto.NewSessionSecret()
	if err != nil {
		return "", err
	}
	for i := 0; i < s.allocRetries; i++ {
		id, err := pkgcrypto.NewAccountID()
		if err != nil {
			return "", err
		}
		a := &model.Account{
			ID:          id,
			Salt:        salt,
			AuthHash:    pkgcrypto.HashToken(authToken),
			SessionHash: pkgcrypto.HashToken(initial),
		}
		err = s.accounts.Create(ctx, a)
		if err == nil {
			return id, nil
		}
		if errors.Is(err, errs.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("%w: after %d attempts", errs.ErrAllocationExhausted, s.allocRetries)
}

// LoginWithIP verifies the submitted auth token with a length-leak-resistant
// comparison and, on success, issues a new session secret, invalidating the
// previous one. One active session per account.
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, accountID, authToken, ip string) (string, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, accountID, ipHash)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", errs.ErrRateLimited
	}

	a, err := s.accounts.Get(ctx, accountID)
	if err != nil || !pkgcrypto.VerifyToken(authToken, a.AuthHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, accountID, ipHash); ferr == nil && blocked {
			return "", errs.ErrRateLimited
		}
		// lookup errors are masked: an absent account and a wrong token are
		// indistinguishable to the caller
		return "", errs.ErrAuthentication
	}

	_ = s.lim.Success(ctx, accountID, ipHash)

	session, err := pkgcrypto.NewSessionSecret()
	if err != nil {
		return "", err
	}
	if err := s.accounts.UpdateSession(ctx, accountID, pkgcrypto.HashToken(session)); err != nil {
		return "", err
	}
	return session, nil
}

// Authenticate strips the auth scheme word from the header value, hashes the
// remainder, and compares it to the stored session hash. A mismatch is
// ErrExpiredSession: the secret may have been rotated by a login elsewhere.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, accountID, header string) error {
	token := StripAuthScheme(header)
	if token == "" {
		return errs.ErrExpiredSession
	}
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrExpiredSession
		}
		return err
	}
	if !pkgcrypto.VerifyToken(token, a.SessionHash) {
		return errs.ErrExpiredSession
	}
	return nil
}

// GetSalt returns the account salt. The salt must be fetchable before a key
// can be derived, and it is not secret, so no authentication is required.
func (s *AuthServiceImpl) GetSalt(ctx context.Context, accountID string) (string, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	return a.Salt, nil
}

// GetMetadata returns the encrypted account settings blob.
func (s *AuthServiceImpl) GetMetadata(ctx context.Context, accountID string) (string, string, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return "", "", err
	}
	return a.MetadataCipher, a.MetadataIV, nil
}

// SetMetadata replaces the encrypted account settings blob.
func (s *AuthServiceImpl) SetMetadata(ctx context.Context, accountID, cipher, iv string) error {
	if cipher == "" || iv == "" {
		return fmt.Errorf("%w: empty metadata cipher/iv", errs.ErrValidation)
	}
	return s.accounts.UpdateMetadata(ctx, accountID, cipher, iv)
}

// StripAuthScheme extracts the token from an "Authorization: <scheme> <token>"
// value. The scheme word is discarded; a bare token is accepted as-is.
func StripAuthScheme(header string) string {
	fields := strings.Fields(header)
	switch len(fields) {
	case 1:
		return fields[0]
	case 2:
		return fields[1]
	default:
		return ""
	}
}
