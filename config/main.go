package config

import (
	"context"
	"time"

	"github.com/akeren/signal-waitlist/config/router"
	"github.com/akeren/signal-waitlist/internal/log"
	"github.com/akeren/signal-waitlist/internal/models"
	"github.com/akeren/signal-waitlist/pkg/constants"
	"github.com/akeren/signal-waitlist/pkg/factory"
	"github.com/akeren/signal-waitlist/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	// DB is nil when waitlist entries are kept in the JSON file.
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	Storage         *StorageConfig
	Factories       *factory.FactoryContainer
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

// NewAppConfig reads RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW and REQUEST_TIMEOUT.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests: int(utils.EnvPositiveInt("RATE_LIMIT_REQUESTS", constants.GlobalRequestsPerMinute)),
		RateLimitWindow:   utils.EnvDuration("RATE_LIMIT_WINDOW", constants.RateLimitWindow()),
		RequestTimeout:    utils.EnvDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	storage := NewStorageConfig()

	var db *gorm.DB
	if storage.UsesDatabase() {
		db, err = NewDatabase(logger, nil)
		if err != nil {
			return nil, err
		}
		logger.Info("Waitlist storage selected", "backend", storage.Backend)
	} else {
		logger.Info("Waitlist storage selected", "backend", storage.Backend, "path", storage.FilePath())
	}

	if autoMigrate {
		if db == nil {
			logger.Warn("--auto-migrate ignored: no database configured")
		} else if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			return nil, err
		}
	}

	appConfig := NewAppConfig()
	cache := NewCacheConfig().NewCacheOrNil(logger)

	factories := factory.NewFactoryContainer(logger, &factory.RateLimitConfig{
		Requests: appConfig.RateLimitRequests,
		Window:   appConfig.RateLimitWindow,
	}, cache)

	routerService := router.CreateRouterService(logger, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
		GlobalLimiter:     factories.RateLimiterFactory.CreateRateLimiter(),
	})

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		Storage:         storage,
		Factories:       factories,
		TracingShutdown: tracingShutdown,
	}, nil
}
