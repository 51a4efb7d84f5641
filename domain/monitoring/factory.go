package monitoring

import (
	"github.com/akeren/signal-waitlist/config/router"
	"github.com/akeren/signal-waitlist/internal/log"
	"github.com/akeren/signal-waitlist/pkg/factory"
	"gorm.io/gorm"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	db       *gorm.DB
	logger   *log.Logger
	cache    Cache
	storage  Storage
	limiters factory.RateLimiterFactory
}

func NewMonitoringControllerFactory(db *gorm.DB, logger *log.Logger, cache Cache, storage Storage, limiters factory.RateLimiterFactory) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		db:       db,
		logger:   logger,
		cache:    cache,
		storage:  storage,
		limiters: limiters,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache, f.storage, f.limiters)
}
