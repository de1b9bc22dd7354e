package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/limiter"
	"github.com/iota-pi/flock-sub001/internal/model"
	"github.com/iota-pi/flock-sub001/internal/storage/memory"
)

func newAuthService() *AuthServiceImpl {
	driver := memory.New().Driver()
	lim := limiter.NewMemory(time.Minute, 3, time.Minute)
	return NewAuthService(driver.Accounts, lim, 0)
}

func TestCreateAccountAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newAuthService()

	account, err := s.CreateAccount(ctx, "c2FsdA==", "auth-token-1")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if account == "" {
		t.Fatal("empty account id")
	}

	salt, err := s.GetSalt(ctx, account)
	if err != nil {
		t.Fatalf("GetSalt: %v", err)
	}
	if salt != "c2FsdA==" {
		t.Errorf("salt = %q", salt)
	}

	session, err := s.LoginWithIP(ctx, account, "auth-token-1", "10.0.0.1")
	if err != nil {
		t.Fatalf("LoginWithIP: %v", err)
	}
	if session == "" {
		t.Fatal("empty session secret")
	}
	if err := s.Authenticate(ctx, account, "Basic "+session); err != nil {
		t.Errorf("Authenticate after login: %v", err)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	ctx := context.Background()
	s := newAuthService()
	if _, err := s.CreateAccount(ctx, "", "tok"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("empty salt: err = %v", err)
	}
	if _, err := s.CreateAccount(ctx, "salt", ""); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("empty authToken: err = %v", err)
	}
}

func TestCreateAccountDistinctIDs(t *testing.T) {
	ctx := context.Background()
	s := newAuthService()
	a1, err := s.CreateAccount(ctx, "salt", "tok")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	a2, err := s.CreateAccount(ctx, "salt", "tok")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if a1 == a2 {
		t.Error("two accounts share an id")
	}
}

// collidingAccounts reports every insert as an id collision.
type collidingAccounts struct {
	memory.Accounts
	attempts int
}

func (c *collidingAccounts) Create(context.Context, *model.Account) error {
	c.attempts++
	return errs.ErrAlreadyExists
}

func TestCreateAccountAllocationExhausted(t *testing.T) {
	ctx := context.Background()
	store := &collidingAccounts{}
	s := NewAuthService(store, limiter.NewMemory(time.Minute, 3, time.Minute), 5)

	_, err := s.CreateAccount(ctx, "salt", "tok")
	if !errors.Is(err, errs.ErrAllocationExhausted) {
		t.Fatalf("err = %v, want ErrAllocationExhausted", err)
	}
	if store.attempts != 5 {
		t.Errorf("attempts = %d, want 5", store.attempts)
	}
}

func TestLoginWrongToken(t *testing.T) {
	ctx := context.Background()
	s := newAuthService()
	account, _ := s.CreateAccount(ctx, "salt", "right-token")

	if _, err := s.LoginWithIP(ctx, account, "wrong-token", "10.0.0.1"); !errors.Is(err, errs.ErrAuthentication) {
		t.Errorf("wrong token: err = %v, want ErrAuthentication", err)
	}
}

func TestLoginUnknownAccountMasked(t *testing.T) {
	ctx := context.Background()
	s := newAuthService()
	_, err := s.LoginWithIP(ctx, "no-such-account", "tok", "10.0.0.1")
	if !errors.Is(err, errs.ErrAuthentication) {
		t.Errorf("unknown account: err = %v, want ErrAuthentication", err)
	}
	if errors.Is(err, errs.ErrNotFound) {
		t.Error("unknown account must not be distinguishable from a wrong token")
	}
}

func TestLoginRotatesSession(t *testing.T) {
	ctx := context.Background()
	s := newAuthService()
	account, _ := s.CreateAccount(ctx, "salt", "tok")

	s1, err := s.LoginWithIP(ctx, account, "tok", "10.0.0.1")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	s2, err := s.LoginWithIP(ctx, account, "tok", "10.0.0.1")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if s1 == s2 {
		t.Fatal("session secret not rotated")
	}
	if err := s.Authenticate(ctx, account, "Basic "+s1); !errors.Is(err, errs.ErrExpiredSession) {
		t.Errorf("old session: err = %v, want ErrExpiredSession", err)
	}
	if err := s.Authenticate(ctx, account, "Basic "+s2); err != nil {
		t.Errorf("current session: %v", err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	ctx := context.Background()
	s := newAuthService()
	account, _ := s.CreateAccount(ctx, "salt", "tok")

	var last error
	for i := 0; i < 3; i++ {
		_, last = s.LoginWithIP(ctx, account, "wrong", "10.0.0.1")
	}
	if !errors.Is(last, errs.ErrRateLimited) {
		t.Fatalf("final failed attempt: err = %v, want ErrRateLimited", last)
	}
	// even the right token is blocked during the lockout window
	if _, err := s.LoginWithIP(ctx, account, "tok", "10.0.0.1"); !errors.Is(err, errs.ErrRateLimited) {
		t.Errorf("login during lockout: err = %v, want ErrRateLimited", err)
	}
	// a different ip is not affected
	if _, err := s.LoginWithIP(ctx, account, "tok", "10.0.0.2"); err != nil {
		t.Errorf("login from a different ip: %v", err)
	}
}

func TestAuthenticateMissingParts(t *testing.T) {
	ctx := context.Background()
	s := newAuthService()
	account, _ := s.CreateAccount(ctx, "salt", "tok")

	if err := s.Authenticate(ctx, account, ""); !errors.Is(err, errs.ErrExpiredSession) {
		t.Errorf("empty header: err = %v", err)
	}
	if err := s.Authenticate(ctx, "missing", "Basic abc"); !errors.Is(err, errs.ErrExpiredSession) {
		t.Errorf("unknown account: err = %v", err)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newAuthService()
	account, _ := s.CreateAccount(ctx, "salt", "tok")

	if err := s.SetMetadata(ctx, account, "cipher-blob", "iv-blob"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	cipher, iv, err := s.GetMetadata(ctx, account)
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if cipher != "cipher-blob" || iv != "iv-blob" {
		t.Errorf("metadata = (%q, %q)", cipher, iv)
	}

	if err := s.SetMetadata(ctx, account, "", "iv"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("empty cipher: err = %v", err)
	}
}

func TestStripAuthScheme(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Basic abc123", "abc123"},
		{"Bearer abc123", "abc123"},
		{"abc123", "abc123"},
		{"  Basic   abc123  ", "abc123"},
		{"", ""},
		{"a b c", ""},
	}
	for _, tc := range cases {
		if got := StripAuthScheme(tc.in); got != tc.want {
			t.Errorf("StripAuthScheme(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
