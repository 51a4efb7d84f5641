// Package circuitbreaker stops calling a failing dependency until it has had time to recover.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type CircuitBreaker interface {
	// Execute runs fn unless the circuit is open. Errors caused by the caller's
	// own context ending do not count as failures.
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	State() State
}

type Config struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
	// OnStateChange is called outside the breaker's lock.
	OnStateChange func(from, to State)
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 2,
	}
}

type breaker struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openUntil time.Time
}

func NewCircuitBreaker(cfg *Config) CircuitBreaker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 1
	}
	if c.SuccessThreshold < 1 {
		c.SuccessThreshold = 1
	}
	return &breaker{cfg: c, now: time.Now}
}

func (b *breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	b.record(err == nil)
	return err
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) admit() error {
	b.mu.Lock()
	from := b.state
	if b.state == Open && !b.now().Before(b.openUntil) {
		b.state = HalfOpen
		b.successes = 0
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	if to == Open {
		return ErrCircuitOpen
	}
	return nil
}

func (b *breaker) record(ok bool) {
	b.mu.Lock()
	from := b.state
	if ok {
		b.failures = 0
		if b.state == HalfOpen {
			b.successes++
			if b.successes >= b.cfg.SuccessThreshold {
				b.state = Closed
			}
		}
	} else {
		b.failures++
		if b.state == HalfOpen || b.failures >= b.cfg.FailureThreshold {
			b.state = Open
			b.openUntil = b.now().Add(b.cfg.RecoveryTimeout)
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *breaker) notify(from, to State) {
	if from != to && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}
