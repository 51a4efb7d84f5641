package router

import (
	"fmt"
	"strings"

	"github.com/akeren/signal-waitlist/pkg/utils"
)

const (
	defaultPort         = "8080"
	defaultMaxBodyBytes = 1 << 20
	defaultHSTSMaxAge   = 31536000
)

// httpSettings is the environment the HTTP layer reads once at startup.
type httpSettings struct {
	ginMode        string
	port           string
	trustedProxies []string
	corsOrigins    []string
	maxBodyBytes   int64
	hsts           string
}

func loadHTTPSettings() httpSettings {
	return httpSettings{
		ginMode:        utils.Env("GIN_MODE"),
		port:           utils.EnvOr("APP_PORT", defaultPort),
		trustedProxies: parseTrustedProxies(utils.Env("TRUSTED_PROXIES")),
		corsOrigins:    splitList(utils.Env("CORS_ALLOWED_ORIGIN")),
		maxBodyBytes:   utils.EnvPositiveInt("MAX_REQUEST_BODY_BYTES", defaultMaxBodyBytes),
		hsts:           hstsHeader(),
	}
}

// parseTrustedProxies returns nil when unset so ClientIP falls back to
// RemoteAddr instead of trusting any X-Forwarded-For.
func parseTrustedProxies(v string) []string {
	if v == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}
	return splitList(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// hstsHeader is empty when HSTS is off. It defaults on in production.
func hstsHeader() string {
	appEnv := strings.ToLower(utils.Env("APP_ENV"))
	enabled, ok := utils.EnvBool("HSTS_ENABLED")
	if !ok {
		enabled = appEnv == "production" || appEnv == "prod"
	}
	if !enabled {
		return ""
	}

	value := fmt.Sprintf("max-age=%d", utils.EnvPositiveInt("HSTS_MAX_AGE", defaultHSTSMaxAge))
	if sub, ok := utils.EnvBool("HSTS_INCLUDE_SUBDOMAINS"); !ok || sub {
		value += "; includeSubDomains"
	}
	return value
}

func (s httpSettings) allowsOrigin(origin string) bool {
	for _, allowed := range s.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
