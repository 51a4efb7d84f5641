package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("database is down")

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg Config) (*breaker, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	b := NewCircuitBreaker(&cfg).(*breaker)
	b.now = c.now
	return b, c
}

func TestExecute_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 2, RecoveryTimeout: time.Minute})
	ctx := context.Background()

	assert.ErrorIs(t, b.Execute(ctx, fail), errDown)
	assert.Equal(t, Closed, b.State())
	assert.ErrorIs(t, b.Execute(ctx, fail), errDown)
	assert.Equal(t, Open, b.State())

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestExecute_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 2, RecoveryTimeout: time.Minute})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	require.NoError(t, b.Execute(ctx, succeed))
	_ = b.Execute(ctx, fail)

	assert.Equal(t, Closed, b.State())
}

func TestExecute_HalfOpenRecovers(t *testing.T) {
	b, c := newTestBreaker(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, SuccessThreshold: 2})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	require.Equal(t, Open, b.State())

	c.advance(time.Minute)

	require.NoError(t, b.Execute(ctx, succeed))
	assert.Equal(t, HalfOpen, b.State())
	require.NoError(t, b.Execute(ctx, succeed))
	assert.Equal(t, Closed, b.State())
}

func TestExecute_HalfOpenFailureReopens(t *testing.T) {
	b, c := newTestBreaker(Config{FailureThreshold: 3, RecoveryTimeout: time.Minute, SuccessThreshold: 2})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = b.Execute(ctx, fail)
	}
	c.advance(time.Minute)

	_ = b.Execute(ctx, fail)
	assert.Equal(t, Open, b.State())
	assert.ErrorIs(t, b.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestExecute_CallerCancellationIsNotAFailure(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Closed, b.State())
}

func TestExecute_ReportsTransitions(t *testing.T) {
	var seen []string
	b, c := newTestBreaker(Config{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Second,
		SuccessThreshold: 1,
		OnStateChange: func(from, to State) {
			seen = append(seen, from.String()+"->"+to.String())
		},
	})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	c.advance(time.Second)
	_ = b.Execute(ctx, succeed)

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, seen)
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	b := NewCircuitBreaker(nil).(*breaker)
	assert.Equal(t, *DefaultConfig(), b.cfg)
	assert.Equal(t, "unknown", State(42).String())
}
