package policy

import (
	"time"
)

// RateLimiter admits at most limit attempts per rolling window.
//
// Only admitted attempts are recorded, so a rejected attempt never pushes
// the window further out.
type RateLimiter struct {
	limit  int
	window time.Duration
	stamps []time.Time
}

// NewRateLimiter creates a limiter. A limit of 0 admits everything.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window}
}

// Allow records an attempt at now and reports whether it is admitted.
func (r *RateLimiter) Allow(now time.Time) bool {
	if r.limit <= 0 {
		return true
	}
	r.prune(now)
	if len(r.stamps) >= r.limit {
		return false
	}
	r.stamps = append(r.stamps, now)
	return true
}

// InWindow returns how many admitted attempts fall inside the window ending
// at now.
func (r *RateLimiter) InWindow(now time.Time) int {
	r.prune(now)
	return len(r.stamps)
}

// Limit returns the configured cap.
func (r *RateLimiter) Limit() int {
	return r.limit
}

// Reset forgets every recorded attempt.
func (r *RateLimiter) Reset() {
	r.stamps = r.stamps[:0]
}

// prune drops stamps at or before now-window.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.stamps) && !r.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.stamps = append(r.stamps[:0], r.stamps[i:]...)
	}
}
