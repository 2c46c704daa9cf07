package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failing() error { return errBoom }
func succeeding() error { return nil }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", WithFailureThreshold(3))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
		assert.Equal(t, StateClosed, cb.State())
	}

	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, 3, cb.Failures())
}

func TestBreakerFailsFastWhileOpen(t *testing.T) {
	current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test",
		WithFailureThreshold(1),
		WithResetTimeout(time.Minute),
		WithClock(func() time.Time { return current }))
	ctx := context.Background()

	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	require.Equal(t, StateOpen, cb.State())

	var invoked bool
	current = current.Add(30 * time.Second)
	err := cb.Execute(ctx, func() error {
		invoked = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, invoked, "open breaker must not invoke the call")
}

func TestBreakerHalfOpenTrialCloses(t *testing.T) {
	current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test",
		WithFailureThreshold(1),
		WithResetTimeout(time.Minute),
		WithClock(func() time.Time { return current }))
	ctx := context.Background()

	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)

	current = current.Add(61 * time.Second)
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test",
		WithFailureThreshold(5),
		WithResetTimeout(time.Minute),
		WithClock(func() time.Time { return current }))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	}
	require.Equal(t, StateOpen, cb.State())

	// one failed trial reopens regardless of the failure threshold
	current = current.Add(61 * time.Second)
	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerSuccessThreshold(t *testing.T) {
	current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithResetTimeout(time.Minute),
		WithClock(func() time.Time { return current }))
	ctx := context.Background()

	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)

	current = current.Add(61 * time.Second)
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateHalfOpen, cb.State(), "one success is not enough to close")

	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	cb := NewCircuitBreaker("test", WithFailureThreshold(3))
	ctx := context.Background()

	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	require.NoError(t, cb.Execute(ctx, succeeding))
	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 1, cb.Failures())
}

func TestHalfOpenAdmitsSingleTrial(t *testing.T) {
	current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test",
		WithFailureThreshold(1),
		WithResetTimeout(time.Minute),
		WithClock(func() time.Time { return current }))
	ctx := context.Background()

	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	require.Equal(t, StateOpen, cb.State())

	current = current.Add(2 * time.Minute)

	// a second caller arriving while the trial is still running is
	// rejected instead of issuing a competing trial
	var overlapping error
	err := cb.Execute(ctx, func() error {
		overlapping = cb.Execute(ctx, succeeding)
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, overlapping, ErrCircuitOpen)
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerCancelledContext(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var invoked bool
	err := cb.Execute(ctx, func() error {
		invoked = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, invoked)
}

func TestBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker("test", WithFailureThreshold(1))
	ctx := context.Background()

	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
	require.NoError(t, cb.Execute(ctx, succeeding))
}

func TestBreakerOpenHook(t *testing.T) {
	current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	var hookBreaker string
	var hookFailures int
	var hookCalls int

	cb := NewCircuitBreaker("behavior-db",
		WithFailureThreshold(2),
		WithResetTimeout(time.Minute),
		WithClock(func() time.Time { return current }),
		WithOpenHook(func(name string, failures int) {
			hookBreaker = name
			hookFailures = failures
			hookCalls++
		}))
	ctx := context.Background()

	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	assert.Zero(t, hookCalls)

	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	assert.Equal(t, 1, hookCalls)
	assert.Equal(t, "behavior-db", hookBreaker)
	assert.Equal(t, 2, hookFailures)

	// reopening from half-open fires again
	current = current.Add(61 * time.Second)
	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	assert.Equal(t, 2, hookCalls)
	assert.Equal(t, 1, hookFailures)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
