// Package ratelimit throttles OTP sends and verification attempts per email.
// Limits are fixed windows with an optional cooldown between allowed calls.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable means the backend could not be consulted. Callers treat it
// as a denial.
var ErrUnavailable = errors.New("ratelimit: limiter unavailable")

// Policy is Max calls per Window, with at least Cooldown between two
// allowed calls. Zero Cooldown disables the gap check.
type Policy struct {
	Window   time.Duration
	Max      int
	Cooldown time.Duration
}

func (p Policy) validate() error {
	if p.Window <= 0 || p.Max <= 0 {
		return fmt.Errorf("ratelimit: window and max must be positive, got %s/%d", p.Window, p.Max)
	}
	if p.Cooldown < 0 {
		return fmt.Errorf("ratelimit: negative cooldown %s", p.Cooldown)
	}
	return nil
}

// LimitedError is returned when a key is over its policy.
type LimitedError struct {
	RetryAfter time.Duration
}

func (e *LimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}

// Limiter decides whether a call for key may go ahead.
type Limiter interface {
	Allow(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// Nop allows everything.
type Nop struct{}

func (Nop) Allow(context.Context, string) error { return nil }
func (Nop) Reset(context.Context, string) error { return nil }
