// Package session persists active sessions in Redis, keyed by token.
// Redis TTL owns record expiry; every mutation keeps the key TTL and the
// stored expires_at field in lockstep.
package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/serviceerrors"
)

type Implementation struct {
	c *redis.Client
}

func NewImplementation(c *redis.Client) *Implementation {
	return &Implementation{
		c: c,
	}
}

// extendScript renews a session atomically. The stored expiry only ever
// moves forward: two concurrent holds cannot discard each other's renewal.
// Returns the winning expiry, or false when the key is gone.
var extendScript = redis.NewScript(`
local exp = redis.call('HGET', KEYS[1], 'expires_at')
if not exp then
  return false
end
local new = tonumber(ARGV[1])
if tonumber(exp) < new then
  redis.call('HSET', KEYS[1], 'expires_at', ARGV[1])
  redis.call('EXPIREAT', KEYS[1], ARGV[1])
  return new
end
return tonumber(exp)
`)

func (repo *Implementation) Set(ctx context.Context, s domain.Session) error {
	pipe := repo.c.TxPipeline()
	pipe.HSet(ctx, s.Token,
		"user_id", strconv.FormatUint(s.UserID.ID, 10),
		"created_at", strconv.FormatInt(s.CreatedAt.Unix(), 10),
		"expires_at", strconv.FormatInt(s.ExpiresAt.Unix(), 10),
	)
	pipe.ExpireAt(ctx, s.Token, s.ExpiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return serviceerrors.NewAppError(err).Wrap(err, "session store write failed")
	}

	return nil
}

func (repo *Implementation) Get(ctx context.Context, token domain.SessionToken) (domain.Session, error) {
	fields, err := repo.c.HGetAll(ctx, token.Token).Result()
	if err != nil {
		return domain.Session{}, serviceerrors.NewAppError(err).Wrap(err, "session store read failed")
	}
	if len(fields) == 0 {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	userID, err := strconv.ParseUint(fields["user_id"], 10, 64)
	if err != nil {
		return domain.Session{}, serviceerrors.NewAppError(err).Wrap(err, "corrupt session record")
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return domain.Session{}, serviceerrors.NewAppError(err).Wrap(err, "corrupt session record")
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return domain.Session{}, serviceerrors.NewAppError(err).Wrap(err, "corrupt session record")
	}

	return domain.Session{
		Token:     token.Token,
		UserID:    domain.ID{ID: userID},
		CreatedAt: time.Unix(createdAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
	}, nil
}

func (repo *Implementation) Extend(ctx context.Context, token domain.SessionToken, expiresAt time.Time) (time.Time, error) {
	res, err := extendScript.Run(ctx, repo.c,
		[]string{token.Token}, expiresAt.Unix()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, domain.ErrSessionNotFound
		}
		return time.Time{}, serviceerrors.NewAppError(err).Wrap(err, "session store extend failed")
	}

	return time.Unix(res, 0).UTC(), nil
}

// Delete tolerates repeated removals of the same token.
func (repo *Implementation) Delete(ctx context.Context, token domain.SessionToken) error {
	if err := repo.c.Del(ctx, token.Token).Err(); err != nil {
		return serviceerrors.NewAppError(err).Wrap(err, "session store delete failed")
	}

	return nil
}
