package main

import (
	"sync"
	"time"
)

type rateRecord struct {
	count int
	reset time.Time
}

// RateLimiter tracks per-key usage within a fixed window. Keys here are
// tenant-scoped ("enroll-token:<tenant>"), so one noisy tenant cannot starve
// another.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]rateRecord
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{entries: make(map[string]rateRecord)}
}

// Allow returns true if the caller may proceed under the provided limit and
// window. Expired records are pruned opportunistically.
func (rl *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return true
	}
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for k, rec := range rl.entries {
		if k != key && now.After(rec.reset) {
			delete(rl.entries, k)
		}
	}

	rec := rl.entries[key]
	if rec.reset.IsZero() || now.After(rec.reset) {
		rec.count = 0
		rec.reset = now.Add(window)
	}
	if rec.count >= limit {
		rl.entries[key] = rec
		return false
	}
	rec.count++
	rl.entries[key] = rec
	return true
}

type RateLimiterStats struct {
	Keys int `json:"keys"`
}

func (rl *RateLimiter) Stats() RateLimiterStats {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return RateLimiterStats{Keys: len(rl.entries)}
}
