package ai

import (
	"testing"
	"time"
)

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow(1) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.Allow(1) {
		t.Fatal("fourth request in the window should be blocked")
	}
	if limiter.Remaining(1) != 0 {
		t.Fatalf("remaining = %d, want 0", limiter.Remaining(1))
	}
}

func TestRateLimiterIsolatesUsers(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)

	if !limiter.Allow(1) {
		t.Fatal("user 1 first request should pass")
	}
	if !limiter.Allow(2) {
		t.Fatal("user 2 should have an independent bucket")
	}
	if limiter.Allow(1) {
		t.Fatal("user 1 second request should be blocked")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	if !limiter.Allow(7) {
		t.Fatal("first request should pass")
	}
	if limiter.Allow(7) {
		t.Fatal("second request should be blocked")
	}

	current = current.Add(time.Minute)
	if !limiter.Allow(7) {
		t.Fatal("window elapsed, request should pass again")
	}
	if limiter.Remaining(7) != 0 {
		t.Fatalf("remaining = %d, want 0", limiter.Remaining(7))
	}
}
