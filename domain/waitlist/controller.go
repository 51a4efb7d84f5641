package waitlist

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/akeren/signal-waitlist/config/router"
	"github.com/akeren/signal-waitlist/internal/log"
	"github.com/akeren/signal-waitlist/pkg/constants"
	apperrors "github.com/akeren/signal-waitlist/pkg/errors"
	"github.com/akeren/signal-waitlist/pkg/factory"
	"github.com/akeren/signal-waitlist/pkg/ratelimit"
	"github.com/akeren/signal-waitlist/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeAccepted  = "accepted"
	outcomeInvalid   = "invalid"
	outcomeBot       = "bot"
	outcomeMalformed = "malformed"
	outcomeError     = "error"
)

func newSubmissionsCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_submissions_total",
			Help: "Waitlist submissions by outcome.",
		},
		[]string{"outcome"},
	)
	if reg != nil {
		reg.MustRegister(counter)
	}
	return counter
}

func NewWaitlistController(
	repository WaitlistRepository,
	logger *log.Logger,
	limiters factory.RateLimiterFactory,
) *router.RESTController {

	return router.NewRESTController(
		"WaitlistController",
		"/api/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			service := NewWaitlistService(logger, repository)
			submissions := newSubmissionsCounter(rs.MetricsRegisterer())

			rs.AddPostHandler(c, createSubmissionRateLimiter(limiters), "", joinWaitlistHandler(service, submissions))
			rs.AddGetHandler(c, nil, "", listWaitlistHandler(service))
		},
	)
}

func createSubmissionRateLimiter(limiters factory.RateLimiterFactory) ratelimit.RateLimiter {
	limit := ratelimit.Limit{Requests: constants.WaitlistSubmissionsPerMinute, Window: constants.RateLimitWindow()}
	if limiters == nil {
		return ratelimit.NewInMemoryRateLimiter(limit)
	}
	return limiters.CreateRateLimiterWith(factory.ScopeWaitlistSubmit, limit)
}

func joinWaitlistHandler(service WaitlistService, submissions *prometheus.CounterVec) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req JoinWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field != "" {
				if req.Honeypot != "" || typeErr.Field == schema.FieldHoneypot {
					logger.Info("Rejected waitlist submission with a filled honeypot")
					submissions.WithLabelValues(outcomeBot).Inc()
					return router.RawResult(http.StatusBadRequest, ErrorResponse{Error: msgInvalidSubmission})
				}

				logger.Info("Waitlist submission has a field of the wrong type", "field", typeErr.Field)
				submissions.WithLabelValues(outcomeInvalid).Inc()
				details := apperrors.JoinValidationErrors(apperrors.FormatValidationErrors(typeErr, &req))
				return router.RawResult(http.StatusBadRequest, ErrorResponse{Error: msgInvalidData, Details: details})
			}

			logger.Info("Failed to decode waitlist submission", "error", err)
			submissions.WithLabelValues(outcomeMalformed).Inc()
			return router.RawResult(http.StatusBadRequest, ErrorResponse{Error: msgInvalidData, Details: msgMalformedBody})
		}

		response, err := service.JoinWaitlist(ctx.Request.Context(), &req, clientOrigin(ctx.Request))
		if err != nil {
			switch {
			case errors.Is(err, ErrSuspectedBot):
				submissions.WithLabelValues(outcomeBot).Inc()
				return router.RawResult(http.StatusBadRequest, ErrorResponse{Error: msgInvalidSubmission})
			case apperrors.HTTPStatusCode(err) == http.StatusBadRequest:
				submissions.WithLabelValues(outcomeInvalid).Inc()
				return router.RawResult(http.StatusBadRequest, ErrorResponse{
					Error:   msgInvalidData,
					Details: apperrors.GetHumanReadableMessage(err),
				})
			default:
				submissions.WithLabelValues(outcomeError).Inc()
				return router.RawResult(http.StatusInternalServerError, ErrorResponse{Error: msgInternalServerError})
			}
		}

		submissions.WithLabelValues(outcomeAccepted).Inc()
		return router.RawResult(http.StatusOK, response)
	}
}

func listWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.ListEntries(ctx.Request.Context())
		if err != nil {
			return router.RawResult(http.StatusInternalServerError, ErrorResponse{Error: msgFailedToRead})
		}

		return router.RawResult(http.StatusOK, response)
	}
}

// clientOrigin takes the first X-Forwarded-For hop, then X-Real-IP.
func clientOrigin(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	return constants.UnknownClientOrigin
}
