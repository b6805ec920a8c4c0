package domain

import "errors"

var (
	// ErrSessionNotFound covers both tokens that never existed and tokens
	// whose record is gone; callers must not be able to tell these apart.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is an internal diagnostic; at the HTTP boundary it
	// collapses into the same unauthorized outcome as ErrSessionNotFound.
	ErrSessionExpired = errors.New("session expired")

	ErrBadCredentials = errors.New("bad credentials")
	ErrUserExists     = errors.New("user already exists")

	// ErrForbidden: valid session, wrong owner.
	ErrForbidden = errors.New("account owned by another user")

	// ErrValidation marks requests rejected before any storage write; such
	// attempts are never recorded.
	ErrValidation = errors.New("validation error")

	ErrAccountNotFound = errors.New("account not found")
	ErrCurrencyUnknown = errors.New("unknown currency code")
	// ErrCurrencyMismatch: the accounts involved do not hold the requested
	// currency.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrAmountScale: the amount has finer precision than the currency's
	// minor unit.
	ErrAmountScale = errors.New("amount scale exceeds currency minor unit")

	// ErrInsufficientFunds is terminal: the attempt is recorded as a failed
	// transfer and replayed verbatim on idempotent retry.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrIdempotencyConflict means the key was reused with a different
	// payload.
	ErrIdempotencyConflict = errors.New("idempotency key reused with different payload")

	// ErrTransient wraps storage failures that are safe to retry with the
	// same idempotency key.
	ErrTransient = errors.New("transient storage error")
)
