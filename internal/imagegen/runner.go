package imagegen

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/lastminute/learning-agent/internal/ratelimit"
)

const (
	// DefaultMaxAttempts is the attempt cap per image job.
	DefaultMaxAttempts = 4
	// DefaultBaseBackoff is the first retry delay; it doubles per attempt.
	DefaultBaseBackoff = 5 * time.Second
)

// Runner wraps a single outbound image call with classification-aware retry
// and backoff. Every call first acquires a turn from the shared interval
// limiter, so no two outbound calls across all workers are issued closer
// together than the limiter's minimum gap.
type Runner struct {
	client      Client
	limiter     *ratelimit.Interval
	maxAttempts int
	baseBackoff time.Duration
	sleep       func(context.Context, time.Duration) error
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxAttempts overrides the attempt cap.
func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) { r.maxAttempts = n }
}

// WithBaseBackoff overrides the initial backoff delay.
func WithBaseBackoff(d time.Duration) RunnerOption {
	return func(r *Runner) { r.baseBackoff = d }
}

// WithSleep substitutes the backoff sleep, so tests avoid real delays.
func WithSleep(sleep func(context.Context, time.Duration) error) RunnerOption {
	return func(r *Runner) { r.sleep = sleep }
}

// NewRunner creates a runner over the given client and interval limiter.
func NewRunner(client Client, limiter *ratelimit.Interval, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:      client,
		limiter:     limiter,
		maxAttempts: DefaultMaxAttempts,
		baseBackoff: DefaultBaseBackoff,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one image job to a terminal outcome and returns the payload
// encoded for embedding, or the empty string when the job permanently fails.
// It never returns an error: a failed job must not abort sibling jobs or the
// scheduler.
//
// Transient failures (remote rate limiting, server-side errors, unexpected
// faults) are retried with exponential backoff up to the attempt cap. Any
// other non-success response, and a success without a usable payload, end the
// job immediately.
func (r *Runner) Run(ctx context.Context, prompt string) string {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return ""
		}

		img, err := r.client.Generate(ctx, prompt)
		if err == nil {
			if img == nil || len(img.Data) == 0 {
				return ""
			}
			return DataURI(img)
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Transient {
			log.Printf("image generation failed permanently: %v", err)
			return ""
		}

		if attempt == r.maxAttempts-1 {
			log.Printf("image generation failed after %d attempts: %v", r.maxAttempts, err)
			return ""
		}

		backoff := r.baseBackoff * (1 << attempt)
		log.Printf("image generation error (attempt %d/%d), retrying in %s: %v",
			attempt+1, r.maxAttempts, backoff, err)
		if err := r.sleep(ctx, backoff); err != nil {
			return ""
		}
	}
	return ""
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
