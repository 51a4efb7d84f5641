package config

import (
	"context"
	"time"

	"github.com/akeren/signal-waitlist/internal/log"
	pkgredis "github.com/akeren/signal-waitlist/pkg/redis"
	"github.com/akeren/signal-waitlist/pkg/utils"
	"github.com/go-redis/redis/v8"
)

// Cache is the optional shared Redis connection.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
	GetClient() *redis.Client
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:     utils.Env("REDIS_HOST"),
		Port:     utils.EnvOr("REDIS_PORT", "6379"),
		Password: utils.Env("REDIS_PASSWORD"),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

// NewCacheOrNil connects to Redis when REDIS_HOST is set. Any failure leaves the
// service running on per-instance rate limits, so it only returns nil.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Redis not configured; rate limits are per instance")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cache, err := pkgredis.NewRedisCache(ctx, &pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
	})
	if err != nil {
		logger.Error("Redis unavailable; rate limits are per instance", "error", err)
		return nil
	}

	logger.Info("Redis connected", "host", cc.Host, "port", cc.Port)
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Close(); err != nil {
		logger.Error("Failed to close Redis connection", "error", err)
		return
	}
	logger.Info("Redis connection closed")
}
