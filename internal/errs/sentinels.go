// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across crypto/storage/service/sync layers.
var (
	// ErrEncryption indicates authenticated encryption itself failed
	// (in practice only an entropy-source failure).
	ErrEncryption = errors.New("encryption failed")

	// ErrDecryption indicates an authentication-tag or key mismatch: wrong
	// password or corrupted/tampered ciphertext. Kept distinct from transport
	// errors so callers can tell "wrong password" from "network failure".
	ErrDecryption = errors.New("decryption failed")

	// ErrDeserialization indicates decrypted plaintext is not valid JSON.
	ErrDeserialization = errors.New("deserialization failed")

	// ErrAuthentication indicates a bad credential (maps to HTTP 403).
	ErrAuthentication = errors.New("authentication failed")

	// ErrExpiredSession indicates a stale or rotated session secret. Clients
	// treat it specially: it triggers a re-login flow rather than a generic
	// error.
	ErrExpiredSession = errors.New("session expired")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidType indicates an item type tag outside the known enum.
	ErrInvalidType = errors.New("invalid item type")

	// ErrAllocationExhausted indicates the account-id retry budget was spent
	// on repeated collisions.
	ErrAllocationExhausted = errors.New("account allocation exhausted")

	// ErrAlreadyExists indicates a unique constraint violation (e.g. an
	// account id collision).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates a structurally invalid request (maps to 400).
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
