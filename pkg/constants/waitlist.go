package constants

import "time"

// ISO8601MillisFormat matches the createdAt layout of stored waitlist entries.
const ISO8601MillisFormat = "2006-01-02T15:04:05.000Z07:00"

// Per-client request budgets. The global budget applies to every route and
// can be overridden with RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW.
const (
	GlobalRequestsPerMinute      = 100
	WaitlistSubmissionsPerMinute = 30
	MonitoringRequestsPerMinute  = 10
)

const (
	StorageLabelFile     = "Local JSON storage"
	StorageLabelDatabase = "Database storage"
)

// UnknownClientOrigin is recorded when no forwarding header names the client.
const UnknownClientOrigin = "unknown"

// RateLimitWindow is the window every per-minute budget above is counted over.
func RateLimitWindow() time.Duration {
	return time.Minute
}
