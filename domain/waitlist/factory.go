package waitlist

import (
	"github.com/akeren/signal-waitlist/config/router"
	"github.com/akeren/signal-waitlist/internal/log"
	"github.com/akeren/signal-waitlist/pkg/circuitbreaker"
	"github.com/akeren/signal-waitlist/pkg/factory"
	"gorm.io/gorm"
)

type WaitlistServiceFactory interface {
	CreateRepository() WaitlistRepository
	CreateService() WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	repository WaitlistRepository
	logger     *log.Logger
	limiters   factory.RateLimiterFactory
}

// NewWaitlistServiceFactory stores entries in db when it is non-nil and in the JSON file at dataFile otherwise.
// The repository is built once so every consumer shares the file lock.
func NewWaitlistServiceFactory(db *gorm.DB, dataFile string, logger *log.Logger, limiters factory.RateLimiterFactory) WaitlistServiceFactory {
	var repository WaitlistRepository
	if db != nil {
		repository = NewWaitlistRepository(db, newStorageBreaker(logger))
	} else {
		repository = NewFileWaitlistRepository(dataFile)
	}

	return &DefaultWaitlistServiceFactory{
		repository: repository,
		logger:     logger,
		limiters:   limiters,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateRepository() WaitlistRepository {
	return f.repository
}

func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	return NewWaitlistService(f.logger, f.repository)
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.repository, f.logger, f.limiters)
}

func newStorageBreaker(logger *log.Logger) circuitbreaker.CircuitBreaker {
	cfg := circuitbreaker.DefaultConfig()
	if logger != nil {
		cfg.OnStateChange = func(from, to circuitbreaker.State) {
			logger.Warn("Waitlist database circuit changed state", "from", from.String(), "to", to.String())
		}
	}
	return circuitbreaker.NewCircuitBreaker(cfg)
}
