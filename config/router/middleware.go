package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/akeren/signal-waitlist/internal/log"
	apperrors "github.com/akeren/signal-waitlist/pkg/errors"
	"github.com/gin-gonic/gin"
)

const corsAllowHeaders = "Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID, accept, origin, Cache-Control, X-Requested-With"

// correlate tags the request with a correlation id and a logger carrying it.
func (routerService *RouterService) correlate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Correlation-ID")
		if id == "" {
			id = log.GenerateCorrelationID()
		}
		c.Header("X-Correlation-ID", id)
		c.Request = c.Request.WithContext(log.ContextWithCorrelationID(c.Request.Context(), routerService.logger, id))
		c.Next()
	}
}

func (routerService *RouterService) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		GetLogger(c).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (routerService *RouterService) securityHeaders() gin.HandlerFunc {
	hsts := routerService.settings.hsts
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		if hsts != "" && isHTTPS(c) {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

// isHTTPS also accepts TLS terminated at a reverse proxy.
func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func (routerService *RouterService) limitBodySize() gin.HandlerFunc {
	maxBytes := routerService.settings.maxBodyBytes
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				ErrorResult(http.StatusRequestEntityTooLarge, "Request payload too large", nil).ToJSON())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// cors answers only origins listed in CORS_ALLOWED_ORIGIN. Other origins get
// no CORS headers, which the browser treats as a denial.
func (routerService *RouterService) cors() gin.HandlerFunc {
	settings := routerService.settings
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !settings.allowsOrigin(origin) {
			if origin != "" {
				GetLogger(c).Warn("CORS origin not allowed", "origin", origin)
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(apperrors.StatusNoContent)
			return
		}
		c.Next()
	}
}

// deadline bounds the request context. Handlers run on the request goroutine
// since gin.Context is not safe for concurrent use, so a handler that overruns
// without writing gets a 408 afterwards. The server's read and write timeouts
// cut off the rest.
func (routerService *RouterService) deadline(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			GetLogger(c).Warn("Request timeout detected")
			c.AbortWithStatusJSON(http.StatusRequestTimeout,
				ErrorResult(apperrors.StatusRequestTimeout, "Request timeout", nil).ToJSON())
		}
	}
}
