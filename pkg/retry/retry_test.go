package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func newTestBackoff(cfg *Config) (*ExponentialBackoff, *[]time.Duration) {
	var waits []time.Duration
	b := NewExponentialBackoff(cfg)
	b.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return b, &waits
}

func TestExecute_RetriesUntilDatabaseIsUp(t *testing.T) {
	b, waits := newTestBackoff(&Config{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2})

	calls := 0
	err := b.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errRefused
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *waits)
}

func TestExecute_PermanentErrorIsReturnedAtOnce(t *testing.T) {
	b, waits := newTestBackoff(nil)

	calls := 0
	err := b.Execute(context.Background(), func(context.Context) error {
		calls++
		return errors.New("password authentication failed for user \"waitlist\"")
	})

	assert.EqualError(t, err, "password authentication failed for user \"waitlist\"")
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestExecute_Exhausted(t *testing.T) {
	var retried []int
	b, _ := newTestBackoff(&Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		OnRetry:     func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) },
	})

	err := b.Execute(context.Background(), func(context.Context) error { return errRefused })

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, errRefused)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestExecute_StopsWhenContextEnds(t *testing.T) {
	b := NewExponentialBackoff(&Config{MaxAttempts: 10, BaseDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := b.Execute(ctx, func(context.Context) error {
		calls++
		cancel()
		return errRefused
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errRefused)
	assert.Equal(t, 1, calls)
}

func TestDelay_IsCapped(t *testing.T) {
	b := NewExponentialBackoff(&Config{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2})

	assert.Equal(t, time.Second, b.delay(1))
	assert.Equal(t, 2*time.Second, b.delay(2))
	assert.Equal(t, 3*time.Second, b.delay(5))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errRefused))
	assert.True(t, IsTransient(errors.New("FATAL: the database system is starting up")))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(errors.New("relation \"waitlist_entries\" does not exist")))
	assert.False(t, IsTransient(nil))
}
