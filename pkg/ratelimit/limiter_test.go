package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedLimiter(limit Limit) (*InMemoryRateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewInMemoryRateLimiter(limit)
	l.now = clock.now
	return l, clock
}

func TestInMemory_BudgetIsPerKey(t *testing.T) {
	l, _ := newClockedLimiter(Limit{Requests: 30, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		ok, err := l.Allow(ctx, "198.51.100.7")
		require.NoError(t, err)
		require.True(t, ok, "request %d", i+1)
	}

	ok, _ := l.Allow(ctx, "198.51.100.7")
	assert.False(t, ok, "31st request in the window")

	ok, _ = l.Allow(ctx, "203.0.113.9")
	assert.True(t, ok, "other clients keep their own budget")
}

func TestInMemory_Refills(t *testing.T) {
	l, clock := newClockedLimiter(Limit{Requests: 2, Window: time.Minute})
	ctx := context.Background()

	_, _ = l.Allow(ctx, "a")
	_, _ = l.Allow(ctx, "a")
	ok, _ := l.Allow(ctx, "a")
	require.False(t, ok)

	clock.advance(30 * time.Second)
	ok, _ = l.Allow(ctx, "a")
	assert.True(t, ok)
}

func TestInMemory_DropsIdleKeys(t *testing.T) {
	l, clock := newClockedLimiter(Limit{Requests: 5, Window: time.Minute})
	ctx := context.Background()

	_, _ = l.Allow(ctx, "a")
	_, _ = l.Allow(ctx, "b")
	require.Equal(t, 2, l.size())

	clock.advance(3 * time.Minute)
	_, _ = l.Allow(ctx, "c")

	assert.Equal(t, 1, l.size())
}

func TestLimit_RetryAfterAndDefaults(t *testing.T) {
	assert.Equal(t, 60, Limit{Requests: 30, Window: time.Minute}.RetryAfter())
	assert.Equal(t, 1, Limit{Requests: 1, Window: 10 * time.Millisecond}.RetryAfter())

	l := NewInMemoryRateLimiter(Limit{})
	assert.Equal(t, Limit{Requests: 1, Window: time.Minute}, l.Limit())
}

func TestRedis_KeysAreScoped(t *testing.T) {
	submit := NewRedisRateLimiter(nil, "waitlist-submit", Limit{Requests: 30, Window: time.Minute})
	health := NewRedisRateLimiter(nil, "monitoring", Limit{Requests: 10, Window: time.Minute})

	assert.Equal(t, "signal-waitlist:ratelimit:waitlist-submit:198.51.100.7", submit.key("198.51.100.7"))
	assert.NotEqual(t, submit.key("198.51.100.7"), health.key("198.51.100.7"))
}

func TestRedis_UnreachableIsAnError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	l := NewRedisRateLimiter(client, "waitlist-submit", Limit{Requests: 30, Window: time.Minute})

	ok, err := l.Allow(context.Background(), "198.51.100.7")
	assert.Error(t, err)
	assert.False(t, ok)
}
