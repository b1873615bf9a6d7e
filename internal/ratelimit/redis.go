package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "salestrack:ratelimit"

// RedisLimiter shares counters across API replicas.
type RedisLimiter struct {
	store  redis.Cmdable
	limit  int64
	window time.Duration
}

func NewRedisLimiter(store redis.Cmdable, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{store: store, limit: limit, window: window}
}

func (l *RedisLimiter) key(scope string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, scope)
}

// Allow increments the scope counter, setting the window TTL on the first
// hit.
func (l *RedisLimiter) Allow(ctx context.Context, scope string) (Decision, error) {
	key := l.key(scope)

	count, err := l.store.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, err
	}

	if count == 1 {
		if _, err := l.store.Expire(ctx, key, l.window).Result(); err != nil {
			return Decision{}, err
		}
	}

	d := Decision{Allowed: count <= l.limit, Count: count, Limit: l.limit}

	if !d.Allowed {
		ttl, err := l.store.TTL(ctx, key).Result()
		if err != nil {
			return Decision{}, err
		}
		if ttl < 0 {
			// key lost its expiry; restore it so the scope is not locked out forever
			_ = l.store.Expire(ctx, key, l.window).Err()
			ttl = l.window
		}
		d.RetryAfter = ttl
	}

	return d, nil
}

// NewRedisClient opens a client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
