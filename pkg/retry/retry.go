// Package retry repeats startup calls against dependencies that may not be up yet.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	// Retryable decides whether err is worth another attempt. Nil uses IsTransient.
	Retryable func(err error) bool
	// OnRetry is called before each wait with the attempt that just failed.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
	}
}

// ExhaustedError wraps the last failure once every attempt has been used.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

type ExponentialBackoff struct {
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

func NewExponentialBackoff(cfg *Config) *ExponentialBackoff {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.Multiplier < 1 {
		c.Multiplier = 1
	}
	if c.Retryable == nil {
		c.Retryable = IsTransient
	}
	return &ExponentialBackoff{cfg: c, sleep: sleepContext}
}

// Execute calls fn until it succeeds, fails permanently, runs out of attempts
// or ctx ends.
func (b *ExponentialBackoff) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !b.cfg.Retryable(err) {
			return err
		}
		if attempt == b.cfg.MaxAttempts {
			return &ExhaustedError{Attempts: attempt, Last: err}
		}

		delay := b.delay(attempt)
		if b.cfg.OnRetry != nil {
			b.cfg.OnRetry(attempt, delay, err)
		}
		if serr := b.sleep(ctx, delay); serr != nil {
			return errors.Join(serr, err)
		}
	}
}

func (b *ExponentialBackoff) delay(attempt int) time.Duration {
	d := float64(b.cfg.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= b.cfg.Multiplier
		if b.cfg.MaxDelay > 0 && d >= float64(b.cfg.MaxDelay) {
			return b.cfg.MaxDelay
		}
	}
	return time.Duration(d)
}

var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"timeout",
	"the database system is starting up",
	"too many connections",
}

// IsTransient matches the errors a database gives while it is still starting
// or briefly unreachable.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
