package router

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/akeren/signal-waitlist/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

// route is what the router remembers about one registered handler.
type route struct {
	controller string
	limiter    ratelimit.RateLimiter
}

func routeKey(method, path string) string {
	return method + " " + path
}

func (routerService *RouterService) register(controller *RESTController, method, path string, limiter ratelimit.RateLimiter) {
	key := routeKey(method, path)
	if existing, ok := routerService.routes[key]; ok {
		panic(fmt.Sprintf("%s is already registered by controller %q", key, existing.controller))
	}
	routerService.routes[key] = route{controller: controller.name, limiter: limiter}
}

// limiterFor picks the handler's own limiter and falls back to the global one
// for unregistered routes and handlers registered without a limiter.
func (routerService *RouterService) limiterFor(c *gin.Context) ratelimit.RateLimiter {
	if r, ok := routerService.routes[routeKey(c.Request.Method, c.FullPath())]; ok && r.limiter != nil {
		return r.limiter
	}
	return routerService.globalLimiter
}

// rateLimit counts each request against the client's budget. A limiter that
// cannot answer lets the request through.
func (routerService *RouterService) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := routerService.limiterFor(c)
		limit := limiter.Limit()
		clientIP := c.ClientIP()

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		c.Header("X-RateLimit-Window", limit.Window.String())

		allowed, err := limiter.Allow(c.Request.Context(), clientIP)
		if err != nil {
			GetLogger(c).Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}
		if !allowed {
			GetLogger(c).Warn("Rate limit exceeded", "client_ip", clientIP, "path", c.Request.URL.Path)
			retryAfter := strconv.Itoa(limit.RetryAfter())
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
				Limit:      limit.Requests,
				Window:     limit.Window.String(),
				RetryAfter: retryAfter,
			}).ToJSON())
			return
		}
		c.Next()
	}
}
