package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a token bucket limiter for a single client. It allows a
// number of requests per window, with tokens refilling at a steady rate.
type TokenBucket struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// newTokenBucket creates a full bucket with the specified capacity and refill rate.
func newTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// allow consumes a token if one is available. The second return value is the
// time until the next token becomes available when the request is denied.
func (tb *TokenBucket) allow() (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed.Seconds()*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true, 0
	}

	needed := 1.0 - tb.tokens
	return false, time.Duration(needed / tb.refillRate * float64(time.Second))
}

// Limiter manages per-client token buckets for the HTTP API.
type Limiter struct {
	buckets map[string]*TokenBucket
	mu      sync.Mutex
	limit   int
	window  time.Duration
}

// NewLimiter creates a limiter allowing limit requests per window per client.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]*TokenBucket),
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether a request from the given client is allowed, along
// with a retry-after hint when it is not. A non-positive limit disables
// limiting.
func (l *Limiter) Allow(clientID string) (bool, time.Duration) {
	if l.limit <= 0 {
		return true, 0
	}

	l.mu.Lock()
	bucket, ok := l.buckets[clientID]
	if !ok {
		bucket = newTokenBucket(l.limit, float64(l.limit)/l.window.Seconds())
		l.buckets[clientID] = bucket
	}
	l.mu.Unlock()

	return bucket.allow()
}
