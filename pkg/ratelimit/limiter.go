// Package ratelimit caps how often one client may call a route.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Limit is a budget of Requests per Window for each key.
type Limit struct {
	Requests int
	Window   time.Duration
}

// RetryAfter is the whole number of seconds a limited client is told to wait.
func (l Limit) RetryAfter() int {
	seconds := int(math.Ceil(l.Window.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

func (l Limit) valid() Limit {
	if l.Requests < 1 {
		l.Requests = 1
	}
	if l.Window <= 0 {
		l.Window = time.Minute
	}
	return l
}

type RateLimiter interface {
	// Allow records one request for key and reports whether it fits the budget.
	Allow(ctx context.Context, key string) (bool, error)
	Limit() Limit
}
