package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func requireLimited(t *testing.T, err error) *LimitedError {
	t.Helper()

	var le *LimitedError
	require.True(t, errors.As(err, &le), "expected LimitedError, got %v", err)
	require.Positive(t, le.RetryAfter)
	return le
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	l, err := NewRedisLimiter(client, "otp_verify", Policy{Window: time.Minute, Max: 3})
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, l.Allow(ctx, "jane@bank.example"))
	}
	le := requireLimited(t, l.Allow(ctx, "jane@bank.example"))
	require.LessOrEqual(t, le.RetryAfter, time.Minute)

	// Other keys are independent.
	require.NoError(t, l.Allow(ctx, "bob@bank.example"))

	mr.FastForward(time.Minute + time.Second)
	require.NoError(t, l.Allow(ctx, "jane@bank.example"))
}

func TestRedisLimiterCooldown(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	l, err := NewRedisLimiter(client, "otp_send", Policy{Window: time.Hour, Max: 5, Cooldown: 30 * time.Second})
	require.NoError(t, err)

	require.NoError(t, l.Allow(ctx, "jane@bank.example"))
	le := requireLimited(t, l.Allow(ctx, "jane@bank.example"))
	require.LessOrEqual(t, le.RetryAfter, 30*time.Second)

	// A call blocked by the cooldown does not use up the window.
	count, err := client.Get(ctx, l.windowKey("jane@bank.example")).Int()
	require.NoError(t, err)
	require.Equal(t, 1, count)

	mr.FastForward(31 * time.Second)
	require.NoError(t, l.Allow(ctx, "jane@bank.example"))
}

func TestRedisLimiterReset(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)

	l, err := NewRedisLimiter(client, "otp_verify", Policy{Window: time.Minute, Max: 1})
	require.NoError(t, err)

	require.NoError(t, l.Allow(ctx, "k"))
	requireLimited(t, l.Allow(ctx, "k"))
	require.NoError(t, l.Reset(ctx, "k"))
	require.NoError(t, l.Allow(ctx, "k"))
}

func TestRedisLimiterFailsClosed(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	l, err := NewRedisLimiter(client, "otp_send", Policy{Window: time.Minute, Max: 3})
	require.NoError(t, err)

	mr.Close()
	require.ErrorIs(t, l.Allow(ctx, "jane@bank.example"), ErrUnavailable)
}

func TestLocalLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	l, err := NewLocalLimiter(Policy{Window: time.Minute, Max: 3, Cooldown: 5 * time.Second})
	require.NoError(t, err)
	l.now = func() time.Time { return now }

	require.NoError(t, l.Allow(ctx, "k"))
	requireLimited(t, l.Allow(ctx, "k"))

	for range 2 {
		now = now.Add(6 * time.Second)
		require.NoError(t, l.Allow(ctx, "k"))
	}

	now = now.Add(6 * time.Second)
	le := requireLimited(t, l.Allow(ctx, "k"))
	require.LessOrEqual(t, le.RetryAfter, 20*time.Second)

	require.NoError(t, l.Reset(ctx, "k"))
	require.NoError(t, l.Allow(ctx, "k"))
}

func TestPolicyValidation(t *testing.T) {
	_, err := NewLocalLimiter(Policy{Window: 0, Max: 1})
	require.Error(t, err)
	_, err = NewLocalLimiter(Policy{Window: time.Minute, Max: 1, Cooldown: -time.Second})
	require.Error(t, err)
}
