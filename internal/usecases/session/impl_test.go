package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/token"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]domain.Session)}
}

func (s *memStore) Set(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *memStore) Get(_ context.Context, token domain.SessionToken) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token.Token]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Extend mirrors the Redis script: the stored expiry never moves backward.
func (s *memStore) Extend(_ context.Context, token domain.SessionToken, expiresAt time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token.Token]
	if !ok {
		return time.Time{}, domain.ErrSessionNotFound
	}
	if expiresAt.After(sess.ExpiresAt) {
		sess.ExpiresAt = expiresAt
		s.sessions[token.Token] = sess
	}
	return sess.ExpiresAt, nil
}

func (s *memStore) Delete(_ context.Context, token domain.SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token.Token)
	return nil
}

func newTestImplementation(store *memStore, opts Options) *Implementation {
	return NewImplementation(token.NewGenerator(), store, opts)
}

func TestStartAndVerify(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	uc := newTestImplementation(store, Options{TTL: 10 * time.Minute})

	userID := domain.ID{ID: 7}
	s, err := uc.Start(ctx, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Token == "" {
		t.Fatal("empty token")
	}
	if got := s.ExpiresAt.Sub(s.CreatedAt); got != 10*time.Minute {
		t.Fatalf("ttl = %s, want 10m", got)
	}

	got, err := uc.Verify(ctx, domain.SessionToken{Token: s.Token})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != userID {
		t.Fatalf("verify user = %v, want %v", got, userID)
	}
}

func TestVerifyUnknownToken(t *testing.T) {
	uc := newTestImplementation(newMemStore(), Options{TTL: time.Minute})

	_, err := uc.Verify(context.Background(), domain.SessionToken{Token: "nope"})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	uc := newTestImplementation(store, Options{TTL: time.Minute})

	s, err := uc.Start(ctx, domain.ID{ID: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	uc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = uc.Verify(ctx, domain.SessionToken{Token: s.Token})
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}

	// The stale record must be gone afterwards.
	if _, ok := store.sessions[s.Token]; ok {
		t.Fatal("expired session still stored")
	}
}

func TestHoldExtends(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	uc := newTestImplementation(store, Options{TTL: time.Minute})

	s, err := uc.Start(ctx, domain.ID{ID: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	uc.now = func() time.Time { return time.Now().Add(30 * time.Second) }

	held, err := uc.Hold(ctx, domain.SessionToken{Token: s.Token})
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if held.Token != s.Token {
		t.Fatalf("token rotated without rotation enabled: %s != %s", held.Token, s.Token)
	}
	if !held.ExpiresAt.After(s.ExpiresAt) {
		t.Fatalf("hold did not extend: %s <= %s", held.ExpiresAt, s.ExpiresAt)
	}
}

func TestHoldNeverShortensExpiry(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	uc := newTestImplementation(store, Options{TTL: time.Minute})

	s, err := uc.Start(ctx, domain.ID{ID: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// A later hold already pushed the expiry far out.
	far := s.ExpiresAt.Add(time.Hour)
	if _, err = store.Extend(ctx, domain.SessionToken{Token: s.Token}, far); err != nil {
		t.Fatalf("extend: %v", err)
	}

	held, err := uc.Hold(ctx, domain.SessionToken{Token: s.Token})
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if !held.ExpiresAt.Equal(far) {
		t.Fatalf("expiry moved backward: %s, want %s", held.ExpiresAt, far)
	}
}

func TestHoldExpired(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	uc := newTestImplementation(store, Options{TTL: time.Minute})

	s, err := uc.Start(ctx, domain.ID{ID: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	uc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = uc.Hold(ctx, domain.SessionToken{Token: s.Token})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestHoldRotates(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	uc := newTestImplementation(store, Options{TTL: time.Minute, RotateOnHold: true})

	userID := domain.ID{ID: 5}
	s, err := uc.Start(ctx, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	held, err := uc.Hold(ctx, domain.SessionToken{Token: s.Token})
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if held.Token == s.Token {
		t.Fatal("token not rotated")
	}

	// Old token is dead, new token resolves to the same user.
	if _, err = uc.Verify(ctx, domain.SessionToken{Token: s.Token}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("old token err = %v, want ErrSessionNotFound", err)
	}
	got, err := uc.Verify(ctx, domain.SessionToken{Token: held.Token})
	if err != nil {
		t.Fatalf("verify rotated: %v", err)
	}
	if got != userID {
		t.Fatalf("rotated user = %v, want %v", got, userID)
	}
}

func TestConcurrentHolds(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	uc := newTestImplementation(store, Options{TTL: time.Minute})

	s, err := uc.Start(ctx, domain.ID{ID: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Hold(ctx, domain.SessionToken{Token: s.Token}); err != nil {
				t.Errorf("hold: %v", err)
			}
		}()
	}
	wg.Wait()

	stored := store.sessions[s.Token]
	if stored.ExpiresAt.Before(s.ExpiresAt) {
		t.Fatalf("expiry moved backward under concurrency: %s < %s",
			stored.ExpiresAt, s.ExpiresAt)
	}
}
