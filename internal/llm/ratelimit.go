package llm

import (
	"sync"
	"time"
)

const (
	rateLimitRequests = 10
	rateLimitWindow   = 60 * time.Second
)

// RateLimiter caps outbound model calls with a sliding window: at most
// rateLimitRequests admissions in any trailing rateLimitWindow.
type RateLimiter struct {
	mu      sync.Mutex
	times   []time.Time
	limit   int
	window  time.Duration
	nowFunc func() time.Time
}

// NewRateLimiter creates a limiter with the default 10 calls / 60 s budget.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limit:   rateLimitRequests,
		window:  rateLimitWindow,
		nowFunc: time.Now,
	}
}

// Check admits the call and records its timestamp, or returns a
// *RateLimitedError with the time until the oldest admission expires.
func (r *RateLimiter) Check() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()

	// Prune admissions that have left the window.
	kept := r.times[:0]
	for _, ts := range r.times {
		if now.Sub(ts) < r.window {
			kept = append(kept, ts)
		}
	}
	r.times = kept

	if len(r.times) >= r.limit {
		wait := r.window - now.Sub(r.times[0])
		return &RateLimitedError{Wait: wait}
	}

	r.times = append(r.times, now)
	return nil
}
