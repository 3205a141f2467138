// Package ratelimit provides the rate limiters used by the learning agent:
// an interval gate for outbound image-generation calls and a token bucket
// for the HTTP API.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultMinInterval is the minimum gap between outbound image calls.
// It keeps the agent well inside the image API's free-tier request budget.
const DefaultMinInterval = 4 * time.Second

// Interval is a process-wide gate ensuring a minimum time interval between
// outbound calls, regardless of how many callers are concurrent. The last
// call time is the only shared datum and is guarded by a single lock; the
// lock is held across the wait so two racing callers cannot both observe a
// stale timestamp.
type Interval struct {
	mu       sync.Mutex
	min      time.Duration
	last     time.Time
	now      func() time.Time
	waitFunc func(context.Context, time.Duration) error
}

// Option configures an Interval.
type Option func(*Interval)

// WithClock substitutes the wall clock and sleep, so tests can drive the
// limiter deterministically.
func WithClock(now func() time.Time, wait func(context.Context, time.Duration) error) Option {
	return func(i *Interval) {
		i.now = now
		i.waitFunc = wait
	}
}

// NewInterval creates an interval limiter with the given minimum gap.
// A non-positive gap disables waiting entirely.
func NewInterval(min time.Duration, opts ...Option) *Interval {
	i := &Interval{
		min:      min,
		now:      time.Now,
		waitFunc: sleepCtx,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Wait blocks until at least the configured interval has elapsed since the
// previous call, then records the current time as the new last-call time.
// It returns early only if ctx is cancelled while waiting.
func (i *Interval) Wait(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.last.IsZero() {
		if wait := i.min - i.now().Sub(i.last); wait > 0 {
			if err := i.waitFunc(ctx, wait); err != nil {
				return err
			}
		}
	}
	i.last = i.now()
	return nil
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
