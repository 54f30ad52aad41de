package replay

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "replay:"

// RedisGuard implements Guard on top of Redis. SET NX with expiry is a
// single atomic operation, so the check-then-insert race between concurrent
// redemptions of the same link cannot occur.
type RedisGuard struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisGuardOption configures a RedisGuard.
type RedisGuardOption func(*RedisGuard)

// WithKeyPrefix overrides the default "replay:" key namespace.
func WithKeyPrefix(prefix string) RedisGuardOption {
	return func(g *RedisGuard) {
		if prefix != "" {
			g.keyPrefix = prefix
		}
	}
}

// NewRedisGuard creates a guard backed by the given Redis client.
func NewRedisGuard(client redis.UniversalClient, opts ...RedisGuardOption) *RedisGuard {
	g := &RedisGuard{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckAndConsume implements Guard.
func (g *RedisGuard) CheckAndConsume(ctx context.Context, purpose, nonce string, ttl time.Duration) error {
	if nonce == "" {
		return ErrEmptyNonce
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	ok, err := g.client.SetNX(ctx, g.keyPrefix+purpose+":"+nonce, 1, ttl).Result()
	if err != nil {
		return errors.Join(ErrGuardUnavailable, err)
	}
	if !ok {
		return ErrAlreadyUsed
	}
	return nil
}
