package ai

import (
	"testing"
	"time"
)

func TestCacheHitAndMiss(t *testing.T) {
	cache := NewResponseCache(4, time.Minute)

	key := CacheKey("what is a closure?")
	if _, ok := cache.Get(key); ok {
		t.Fatal("empty cache should miss")
	}

	cache.Put(key, "a function plus its environment")
	got, ok := cache.Get(key)
	if !ok || got != "a function plus its environment" {
		t.Fatalf("get = (%q, %v), want hit", got, ok)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewResponseCache(4, time.Minute)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	key := CacheKey("q")
	cache.Put(key, "a")

	current = current.Add(59 * time.Second)
	if _, ok := cache.Get(key); !ok {
		t.Fatal("entry should survive within the TTL")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := cache.Get(key); ok {
		t.Fatal("entry should expire after the TTL")
	}
	if cache.Len() != 0 {
		t.Fatalf("len = %d, want 0 after expiry", cache.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewResponseCache(2, time.Minute)

	cache.Put("a", "1")
	cache.Put("b", "2")

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := cache.Get("a"); !ok {
		t.Fatal("a should be present")
	}

	cache.Put("c", "3")
	if _, ok := cache.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := cache.Get("a"); !ok {
		t.Fatal("a should survive the eviction")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Fatal("c should be present")
	}
	if cache.Len() != 2 {
		t.Fatalf("len = %d, want 2", cache.Len())
	}
}

func TestCacheKeyStable(t *testing.T) {
	if CacheKey("same prompt") != CacheKey("same prompt") {
		t.Fatal("identical prompts must map to the same key")
	}
	if CacheKey("prompt a") == CacheKey("prompt b") {
		t.Fatal("different prompts should not collide")
	}
}
