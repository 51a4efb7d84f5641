package factory

import (
	"context"
	"time"

	"github.com/akeren/signal-waitlist/internal/log"
	"github.com/akeren/signal-waitlist/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

// Limiter scopes. Each scope counts separately, so a client's health checks
// never spend its submission budget.
const (
	ScopeGlobal         = "global"
	ScopeWaitlistSubmit = "waitlist-submit"
	ScopeMonitoring     = "monitoring"
)

type Cache interface {
	Ping(ctx context.Context) error
	GetClient() *redis.Client
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type RateLimiterFactory interface {
	// CreateRateLimiter returns the global per-client limiter.
	CreateRateLimiter() ratelimit.RateLimiter
	CreateRateLimiterWith(scope string, limit ratelimit.Limit) ratelimit.RateLimiter
}

type DefaultRateLimiterFactory struct {
	global ratelimit.Limit
	redis  *redis.Client
}

// NewDefaultRateLimiterFactory shares limits through Redis when cache answers a
// ping and keeps them in process memory otherwise.
func NewDefaultRateLimiterFactory(global ratelimit.Limit, cache Cache, logger *log.Logger) *DefaultRateLimiterFactory {
	f := &DefaultRateLimiterFactory{global: global}
	if cache == nil {
		return f
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		if logger != nil {
			logger.Warn("Redis unreachable, rate limits are per instance", "error", err)
		}
		return f
	}

	f.redis = cache.GetClient()
	return f
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter() ratelimit.RateLimiter {
	return f.CreateRateLimiterWith(ScopeGlobal, f.global)
}

func (f *DefaultRateLimiterFactory) CreateRateLimiterWith(scope string, limit ratelimit.Limit) ratelimit.RateLimiter {
	if f.redis != nil {
		return ratelimit.NewRedisRateLimiter(f.redis, scope, limit)
	}
	return ratelimit.NewInMemoryRateLimiter(limit)
}

func (f *DefaultRateLimiterFactory) UsesRedis() bool {
	return f.redis != nil
}

type FactoryContainer struct {
	RateLimiterFactory RateLimiterFactory
}

func NewFactoryContainer(logger *log.Logger, rateLimitConfig *RateLimitConfig, cache Cache) *FactoryContainer {
	limiters := NewDefaultRateLimiterFactory(ratelimit.Limit{
		Requests: rateLimitConfig.Requests,
		Window:   rateLimitConfig.Window,
	}, cache, logger)

	if logger != nil {
		logger.Info("Rate limiting configured",
			"redis", limiters.UsesRedis(),
			"requests", rateLimitConfig.Requests,
			"window", rateLimitConfig.Window.String(),
		)
	}

	return &FactoryContainer{RateLimiterFactory: limiters}
}
