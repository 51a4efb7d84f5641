package router

import (
	"net/http"
	"path"

	"github.com/akeren/signal-waitlist/pkg/ratelimit"
)

// NewRESTController groups handlers under mountPoint. prepare registers them
// when the controller is mounted.
func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: path.Clean("/" + mountPoint),
		prepare:    prepare,
	}
}

func (controller *RESTController) pathFor(relativePath string) string {
	return path.Clean(controller.mountPoint + "/" + relativePath)
}

// AddPostHandler registers handler for POST. A nil limiter uses the global one.
func (routerService *RouterService) AddPostHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.addHandler(http.MethodPost, controller, limiter, relativePath, handler, middlewares)
}

// AddGetHandler registers handler for GET. A nil limiter uses the global one.
func (routerService *RouterService) AddGetHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.addHandler(http.MethodGet, controller, limiter, relativePath, handler, middlewares)
}

func (routerService *RouterService) addHandler(method string, controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares []MiddlewareFunc) {
	fullPath := controller.pathFor(relativePath)
	routerService.register(controller, method, fullPath, limiter)
	controller.handlerCount++

	routerService.engine.Handle(method, fullPath, append(middlewares, respondWith(handler))...)
	routerService.logger.Debug("Handler registered", "method", method, "path", fullPath)
}

func respondWith(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)
		if result == nil {
			GetLogger(c).Error("Handler returned no result", "path", c.FullPath())
			result = InternalServerErrorResult("Internal server error")
		}
		c.JSON(result.StatusCode, result.ToJSON())
	}
}
