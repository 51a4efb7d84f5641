package monitoring

import (
	"context"
	"time"

	"github.com/akeren/signal-waitlist/config/router"
	"github.com/akeren/signal-waitlist/internal/log"
	"github.com/akeren/signal-waitlist/pkg/constants"
	"github.com/akeren/signal-waitlist/pkg/factory"
	"github.com/akeren/signal-waitlist/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Cache interface {
	Ping(ctx context.Context) error
}

// Storage is the waitlist backend as seen by health checks.
type Storage interface {
	Ping(ctx context.Context) error
	StorageLabel() string
}

type HealthStatus struct {
	Database int    `json:"database"` // 1 = healthy, 0 = unhealthy/not configured
	Cache    int    `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Storage  int    `json:"storage"`  // 1 = waitlist backend usable
	Backend  string `json:"backend"`
	Uptime   int    `json:"uptime"` // uptime in seconds
}

const healthCheckTimeout = 3 * time.Second

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	storage   Storage
	startTime time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache, storage Storage, limiters factory.RateLimiterFactory) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		storage:   storage,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {

			monitoringRateLimiter := createMonitoringRateLimiter(limiters)

			routerService.AddGetHandler(controller, monitoringRateLimiter, "", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.monitor(c)
			})

			routerService.AddGetHandler(controller, monitoringRateLimiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})
		},
	)
}

func createMonitoringRateLimiter(limiters factory.RateLimiterFactory) ratelimit.RateLimiter {
	limit := ratelimit.Limit{Requests: constants.MonitoringRequestsPerMinute, Window: constants.RateLimitWindow()}
	if limiters == nil {
		return ratelimit.NewInMemoryRateLimiter(limit)
	}
	return limiters.CreateRateLimiterWith(factory.ScopeMonitoring, limit)
}

func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Info("Health check endpoint called")

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()
	healthStatus := ctrl.performHealthChecks(ctx, logger)

	return router.OKResult(healthStatus, "signal-waitlist health check completed")
}

func (ctrl *MonitoringController) monitor(
	c *router.RequestContext,
) *router.ServiceResult {
	return router.OKResult("Monitoring endpoint is operational.", "Monitoring successful")
}

// performHealthChecks pings every dependency at once. A dependency that is not
// configured reports 0 without being treated as a failure.
func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{Uptime: int(time.Since(ctrl.startTime).Seconds())}

	var g errgroup.Group
	if ctrl.db != nil {
		g.Go(func() error {
			status.Database = ping(ctx, logger, "database", ctrl.pingDatabase)
			return nil
		})
	}
	if ctrl.cache != nil {
		g.Go(func() error {
			status.Cache = ping(ctx, logger, "cache", ctrl.cache.Ping)
			return nil
		})
	}
	if ctrl.storage != nil {
		status.Backend = ctrl.storage.StorageLabel()
		g.Go(func() error {
			status.Storage = ping(ctx, logger, "storage", ctrl.storage.Ping)
			return nil
		})
	} else {
		logger.Warn("Waitlist storage not wired, storage health check skipped")
	}
	_ = g.Wait()

	return status
}

func ping(ctx context.Context, logger *log.Logger, dependency string, check func(context.Context) error) int {
	if err := check(ctx); err != nil {
		logger.Error("Health check failed", "dependency", dependency, "error", err)
		return 0
	}
	logger.Debug("Health check passed", "dependency", dependency)
	return 1
}

func (ctrl *MonitoringController) pingDatabase(ctx context.Context) error {
	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
