package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akeren/signal-waitlist/internal/log"
	apperrors "github.com/akeren/signal-waitlist/pkg/errors"
	"github.com/akeren/signal-waitlist/pkg/ratelimit"
	"github.com/akeren/signal-waitlist/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const DefaultTimeoutDuration = 30 * time.Second

type RouterService struct {
	engine          *gin.Engine
	server          *http.Server
	logger          *log.Logger
	settings        httpSettings
	globalLimiter   ratelimit.RateLimiter
	metricsRegistry *prometheus.Registry
	routes          map[string]route
}

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	// GlobalLimiter applies to routes without their own limiter. Nil builds an
	// in-memory one from RateLimitRequests and RateLimitWindow.
	GlobalLimiter ratelimit.RateLimiter
}

func CreateRouterService(logger *log.Logger, routerConfig *RouterConfig) *RouterService {
	settings := loadHTTPSettings()
	if settings.ginMode != "" {
		logger.Info("Setting Gin mode", "mode", settings.ginMode)
		gin.SetMode(settings.ginMode)
	}

	timeout := routerConfig.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeoutDuration
	}

	globalLimiter := routerConfig.GlobalLimiter
	if globalLimiter == nil {
		globalLimiter = ratelimit.NewInMemoryRateLimiter(ratelimit.Limit{
			Requests: routerConfig.RateLimitRequests,
			Window:   routerConfig.RateLimitWindow,
		})
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	if err := engine.SetTrustedProxies(settings.trustedProxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
	} else if settings.trustedProxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}

	rs := &RouterService{
		engine:        engine,
		logger:        logger,
		settings:      settings,
		globalLimiter: globalLimiter,
		routes:        make(map[string]route),
	}

	rs.mountMetrics()

	engine.Use(
		rs.correlate(),
		rs.logRequests(),
		rs.securityHeaders(),
		rs.limitBodySize(),
		rs.cors(),
		rs.rateLimit(),
		rs.deadline(timeout),
	)

	engine.NoRoute(func(c *gin.Context) {
		GetLogger(c).Warn("Route not found", "path", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, ErrorResult(apperrors.StatusNotFound, "Route not found", nil).ToJSON())
	})
	engine.NoMethod(func(c *gin.Context) {
		GetLogger(c).Warn("Method not allowed", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusMethodNotAllowed, ErrorResult(apperrors.StatusMethodNotAllowed, "Method not allowed", nil).ToJSON())
	})

	rs.server = &http.Server{
		Addr:              ":" + settings.port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       60 * time.Second,
	}

	limit := globalLimiter.Limit()
	logger.Info("Router service initialized", "requests", limit.Requests, "window", limit.Window.String())
	return rs
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

func (routerService *RouterService) Cleanup() {
	routerService.logger.Info("Router service cleanup completed")
}

func (routerService *RouterService) MountController(controller *RESTController) {
	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"path", controller.mountPoint,
		"handlers", controller.handlerCount,
	)
}

func (routerService *RouterService) RunHTTPServer() error {
	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr)

	if err := routerService.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		routerService.logger.Error("Failed to start HTTP server", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully...")
	return routerService.server.Shutdown(ctx)
}
