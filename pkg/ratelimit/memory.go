package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// InMemoryRateLimiter keeps one token bucket per key. Buckets idle for two
// windows are dropped.
type InMemoryRateLimiter struct {
	limit Limit
	every rate.Limit
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimiter(limit Limit) *InMemoryRateLimiter {
	limit = limit.valid()
	return &InMemoryRateLimiter{
		limit:   limit,
		every:   rate.Every(limit.Window / time.Duration(limit.Requests)),
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (r *InMemoryRateLimiter) Limit() Limit { return r.limit }

func (r *InMemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep(now)

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(r.every, r.limit.Requests)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	return b.tokens.AllowN(now, 1), nil
}

func (r *InMemoryRateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.limit.Window {
		return
	}
	r.lastSweep = now

	cutoff := now.Add(-2 * r.limit.Window)
	for key, b := range r.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(r.buckets, key)
		}
	}
}

func (r *InMemoryRateLimiter) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}
