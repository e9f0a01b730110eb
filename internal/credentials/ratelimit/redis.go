package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares counters across replicas. Keys are prefixed so several
// policies can live in one database.
type RedisLimiter struct {
	redis  redis.UniversalClient
	prefix string
	policy Policy
}

func NewRedisLimiter(client redis.UniversalClient, prefix string, policy Policy) (*RedisLimiter, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	return &RedisLimiter{redis: client, prefix: prefix, policy: policy}, nil
}

func (l *RedisLimiter) windowKey(key string) string   { return "rl:" + l.prefix + ":w:" + key }
func (l *RedisLimiter) cooldownKey(key string) string { return "rl:" + l.prefix + ":c:" + key }

func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	if l.policy.Cooldown > 0 {
		ttl, err := l.redis.PTTL(ctx, l.cooldownKey(key)).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if ttl > 0 {
			return &LimitedError{RetryAfter: ttl}
		}
	}

	wk := l.windowKey(key)
	count, err := l.redis.Incr(ctx, wk).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.PExpire(ctx, wk, l.policy.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count > int64(l.policy.Max) {
		ttl, err := l.redis.PTTL(ctx, wk).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if ttl <= 0 {
			// Key lost its expiry somehow; put it back so it can't block forever.
			_ = l.redis.PExpire(ctx, wk, l.policy.Window).Err()
			ttl = l.policy.Window
		}
		return &LimitedError{RetryAfter: ttl}
	}

	if l.policy.Cooldown > 0 {
		if err := l.redis.Set(ctx, l.cooldownKey(key), 1, l.policy.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// Reset drops the counters for key. Called after a successful verification
// so the next login starts fresh.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, l.windowKey(key), l.cooldownKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping checks the connection. Used by the readiness probe.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.redis.Ping(ctx).Err()
}

