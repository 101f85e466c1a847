package ai

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window per-user request counter. The window resets
// on the first request after it elapses.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[uint]*windowBucket
	now     func() time.Time
}

type windowBucket struct {
	windowStart time.Time
	count       int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[uint]*windowBucket),
		now:     time.Now,
	}
}

// Allow records one request for the user and reports whether it is within the
// limit for the current window.
func (r *RateLimiter) Allow(userID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.buckets[userID]
	if !ok || now.Sub(b.windowStart) >= r.window {
		r.buckets[userID] = &windowBucket{windowStart: now, count: 1}
		return true
	}
	if b.count >= r.limit {
		return false
	}
	b.count++
	return true
}

// Remaining reports how many requests the user has left in the current window.
func (r *RateLimiter) Remaining(userID uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[userID]
	if !ok || r.now().Sub(b.windowStart) >= r.window {
		return r.limit
	}
	if b.count >= r.limit {
		return 0
	}
	return r.limit - b.count
}
