package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "signal-waitlist:ratelimit:"

// slidingWindow drops members older than the window, refuses when the window
// is full and otherwise records this request. Scores are milliseconds.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
	return 1
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 0
`)

// RedisRateLimiter shares a sliding window across every instance using the
// same Redis. Each scope gets its own keys so budgets never mix.
type RedisRateLimiter struct {
	client *redis.Client
	scope  string
	limit  Limit
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, scope string, limit Limit) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		scope:  scope,
		limit:  limit.valid(),
		now:    time.Now,
	}
}

func (r *RedisRateLimiter) Limit() Limit { return r.limit }

func (r *RedisRateLimiter) key(client string) string {
	return keyPrefix + r.scope + ":" + client
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	limited, err := slidingWindow.Run(ctx, r.client,
		[]string{r.key(key)},
		r.now().UnixMilli(),
		r.limit.Window.Milliseconds(),
		r.limit.Requests,
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis %s: %w", r.scope, err)
	}
	return limited == 0, nil
}
