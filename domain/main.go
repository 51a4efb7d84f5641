package domain

import (
	"github.com/akeren/signal-waitlist/config"
	"github.com/akeren/signal-waitlist/domain/monitoring"
	"github.com/akeren/signal-waitlist/domain/waitlist"
	"github.com/akeren/signal-waitlist/pkg/factory"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	storage := appConfig.Storage
	if storage == nil {
		storage = config.NewStorageConfig()
	}

	var limiters factory.RateLimiterFactory
	if appConfig.Factories != nil {
		limiters = appConfig.Factories.RateLimiterFactory
	}

	waitlistFactory := waitlist.NewWaitlistServiceFactory(appConfig.DB, storage.FilePath(), appConfig.Logger, limiters)

	appConfig.RouterService.MountController(monitoring.NewMonitoringControllerFactory(
		appConfig.DB,
		appConfig.Logger,
		appConfig.Cache,
		waitlistFactory.CreateRepository(),
		limiters,
	).CreateController())
	appConfig.RouterService.MountController(waitlistFactory.CreateController())
}
