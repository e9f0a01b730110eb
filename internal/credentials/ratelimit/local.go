package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const localIdleTTL = time.Hour

// LocalLimiter keeps state in process. It spreads Max calls over Window as a
// token bucket with burst Max, which lets the same number of calls through
// a fresh window as the Redis limiter. Use it for single replica deployments.
type LocalLimiter struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*localEntry
	sweeps  int
}

type localEntry struct {
	limiter     *rate.Limiter
	lastAllowed time.Time
	lastSeen    time.Time
}

func NewLocalLimiter(policy Policy) (*LocalLimiter, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	return &LocalLimiter{
		policy:  policy,
		now:     time.Now,
		entries: make(map[string]*localEntry),
	}, nil
}

func (l *LocalLimiter) Allow(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeSweep(now)

	e, ok := l.entries[key]
	if !ok {
		every := rate.Every(l.policy.Window / time.Duration(l.policy.Max))
		e = &localEntry{limiter: rate.NewLimiter(every, l.policy.Max)}
		l.entries[key] = e
	}
	e.lastSeen = now

	if l.policy.Cooldown > 0 && !e.lastAllowed.IsZero() {
		if wait := e.lastAllowed.Add(l.policy.Cooldown).Sub(now); wait > 0 {
			return &LimitedError{RetryAfter: wait}
		}
	}

	if !e.limiter.AllowN(now, 1) {
		r := e.limiter.ReserveN(now, 1)
		wait := r.DelayFrom(now)
		r.CancelAt(now)
		return &LimitedError{RetryAfter: wait}
	}

	e.lastAllowed = now
	return nil
}

func (l *LocalLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key)
	return nil
}

// maybeSweep drops idle keys every few hundred calls so the map doesn't grow
// with every email ever seen.
func (l *LocalLimiter) maybeSweep(now time.Time) {
	l.sweeps++
	if l.sweeps < 256 {
		return
	}
	l.sweeps = 0
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > localIdleTTL {
			delete(l.entries, k)
		}
	}
}
