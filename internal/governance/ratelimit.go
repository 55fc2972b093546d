// Package governance provides request admission control for the
// promptguard API surface.
package governance

import (
	"sync"
	"time"
)

// RateLimiter implements token bucket rate limiting per route.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*tokenBucket
	rps     int
	burst   int
}

// NewRateLimiter creates a limiter applying the given rate and burst to
// every route it is asked about. Buckets are created lazily per route so
// a flood against one endpoint does not starve the others.
func NewRateLimiter(rps, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		rps:     rps,
		burst:   burst,
	}
}

// Configure updates the limiter with new settings. Existing buckets are
// reconfigured in place so accumulated state survives a config reload.
func (rl *RateLimiter) Configure(rps, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.rps = rps
	rl.burst = burst
	for _, bucket := range rl.buckets {
		bucket.configure(rps, burst)
	}
}

// Allow reports whether a request for the given route should proceed.
func (rl *RateLimiter) Allow(route string) bool {
	rl.mu.RLock()
	bucket, exists := rl.buckets[route]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		bucket, exists = rl.buckets[route]
		if !exists {
			bucket = newTokenBucket(rl.rps, rl.burst)
			rl.buckets[route] = bucket
		}
		rl.mu.Unlock()
	}

	return bucket.take()
}

// tokenBucket implements the token bucket algorithm for one route.
type tokenBucket struct {
	mu         sync.Mutex
	rate       float64
	capacity   float64
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(rps, burst int) *tokenBucket {
	if rps <= 0 {
		rps = 100
	}
	if burst <= 0 {
		burst = rps
	}

	return &tokenBucket{
		rate:       float64(rps),
		capacity:   float64(burst),
		tokens:     float64(burst),
		lastRefill: time.Now(),
	}
}

func (tb *tokenBucket) configure(rps, burst int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if rps <= 0 {
		rps = 100
	}
	if burst <= 0 {
		burst = rps
	}

	tb.rate = float64(rps)
	tb.capacity = float64(burst)
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
}

// take attempts to consume one token, refilling first based on elapsed
// time.
func (tb *tokenBucket) take() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}
