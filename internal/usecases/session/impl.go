// Package session owns the session state machine: start, hold, verify.
package session

import (
	"context"
	"time"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
)

type tokenGenerator interface {
	Generate() string
}

type sessionStore interface {
	Set(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, token domain.SessionToken) (domain.Session, error)
	Extend(ctx context.Context, token domain.SessionToken, expiresAt time.Time) (time.Time, error)
	Delete(ctx context.Context, token domain.SessionToken) error
}

type Options struct {
	TTL time.Duration
	// RotateOnHold issues a fresh token on every successful hold. Off by
	// default: a held session keeps its token.
	RotateOnHold bool
}

type Implementation struct {
	tokens tokenGenerator
	store  sessionStore
	opts   Options

	now func() time.Time
}

func NewImplementation(tokens tokenGenerator, store sessionStore, opts Options) *Implementation {
	return &Implementation{
		tokens: tokens,
		store:  store,
		opts:   opts,
		now:    time.Now,
	}
}

// Start creates a session for an already-verified user id.
func (i *Implementation) Start(ctx context.Context, userID domain.ID) (domain.Session, error) {
	now := i.now().UTC().Truncate(time.Second)
	s := domain.Session{
		Token:     i.tokens.Generate(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(i.opts.TTL),
	}

	if err := i.store.Set(ctx, s); err != nil {
		return domain.Session{}, err
	}

	return s, nil
}

// Hold renews an existing valid session. An expired token fails exactly like
// one that never existed, so callers cannot probe token history.
func (i *Implementation) Hold(ctx context.Context, token domain.SessionToken) (domain.Session, error) {
	s, err := i.store.Get(ctx, token)
	if err != nil {
		return domain.Session{}, err
	}

	now := i.now().UTC().Truncate(time.Second)
	if !now.Before(s.ExpiresAt) {
		_ = i.store.Delete(ctx, token)
		return domain.Session{}, domain.ErrSessionNotFound
	}

	if i.opts.RotateOnHold {
		rotated := domain.Session{
			Token:     i.tokens.Generate(),
			UserID:    s.UserID,
			CreatedAt: s.CreatedAt,
			ExpiresAt: now.Add(i.opts.TTL),
		}
		if err = i.store.Set(ctx, rotated); err != nil {
			return domain.Session{}, err
		}
		if err = i.store.Delete(ctx, token); err != nil {
			return domain.Session{}, err
		}
		return rotated, nil
	}

	// The store arbitrates concurrent holds: the stored expiry never moves
	// backward, and the winning value comes back to the caller.
	expiresAt, err := i.store.Extend(ctx, token, now.Add(i.opts.TTL))
	if err != nil {
		return domain.Session{}, err
	}
	s.ExpiresAt = expiresAt

	return s, nil
}

// Verify resolves a token to its user id. This is the sole authorization
// gate in front of the finance service.
func (i *Implementation) Verify(ctx context.Context, token domain.SessionToken) (domain.ID, error) {
	s, err := i.store.Get(ctx, token)
	if err != nil {
		return domain.ID{}, err
	}

	if !i.now().UTC().Before(s.ExpiresAt) {
		// Hygiene: drop the stale record. Redis may have already evicted
		// it; duplicate removal is harmless.
		_ = i.store.Delete(ctx, token)
		return domain.ID{}, domain.ErrSessionExpired
	}

	return s.UserID, nil
}
