package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Env returns the trimmed value of key with one pair of surrounding quotes removed,
// as left behind by some .env writers and container platforms.
func Env(key string) string {
	s := strings.TrimSpace(os.Getenv(key))
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}

func EnvOr(key, fallback string) string {
	if v := Env(key); v != "" {
		return v
	}
	return fallback
}

// EnvPositiveInt ignores values that are not positive integers.
func EnvPositiveInt(key string, fallback int64) int64 {
	if v, err := strconv.ParseInt(Env(key), 10, 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

// EnvDuration ignores values that are not positive durations.
func EnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(Env(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// EnvBool reports whether key was set to a parseable boolean.
func EnvBool(key string) (value bool, ok bool) {
	v, err := strconv.ParseBool(Env(key))
	if err != nil {
		return false, false
	}
	return v, true
}
