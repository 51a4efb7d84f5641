package router

import (
	"net/http"

	"github.com/akeren/signal-waitlist/internal/log"
)

// GetLogger returns the request's correlated logger.
func GetLogger(ctx *RequestContext) *log.Logger {
	return log.GetLoggerInstanceFromContext(ctx.Request.Context(), nil)
}

func OKResult(data any, message string) *ServiceResult {
	return ErrorResult(http.StatusOK, message, data)
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return ErrorResult(http.StatusTooManyRequests, "Too Many Requests", data)
}

func InternalServerErrorResult(message string) *ServiceResult {
	return ErrorResult(http.StatusInternalServerError, message, nil)
}

// ErrorResult builds the {code, data, message} envelope for any status.
func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
	}
}

// RawResult responds with payload as-is, for endpoints whose body shape is fixed by clients.
func RawResult(statusCode int, payload any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Payload:    payload,
	}
}
