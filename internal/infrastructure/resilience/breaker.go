// Package resilience protects downstream calls against cascading failures
package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Failing, requests blocked
	StateHalfOpen              // Testing if the dependency recovered
)

// String returns the lowercase state name for logging and stats payloads
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker wraps calls to an unreliable dependency. After
// failureThreshold consecutive failures it opens and fails fast; once
// resetTimeout elapses a single trial call is let through.
type CircuitBreaker struct {
	mu sync.RWMutex

	// Configuration
	name             string
	failureThreshold int
	successThreshold int
	resetTimeout     time.Duration

	// State
	state           State
	failures        int
	successes       int
	trialInFlight   bool
	lastFailTime    time.Time
	lastAttemptTime time.Time

	logger *slog.Logger
	onOpen func(name string, failures int)
	now    func() time.Time
}

// CircuitOption configures the circuit breaker
type CircuitOption func(*CircuitBreaker)

// WithFailureThreshold sets failures before opening
func WithFailureThreshold(n int) CircuitOption {
	return func(cb *CircuitBreaker) {
		cb.failureThreshold = n
	}
}

// WithSuccessThreshold sets successes before closing
func WithSuccessThreshold(n int) CircuitOption {
	return func(cb *CircuitBreaker) {
		cb.successThreshold = n
	}
}

// WithResetTimeout sets time before trying again
func WithResetTimeout(d time.Duration) CircuitOption {
	return func(cb *CircuitBreaker) {
		cb.resetTimeout = d
	}
}

// WithLogger adds logging
func WithLogger(logger *slog.Logger) CircuitOption {
	return func(cb *CircuitBreaker) {
		cb.logger = logger
	}
}

// WithOpenHook registers a callback invoked whenever the circuit opens,
// typically to raise a monitoring alert. The hook runs outside the
// breaker's lock.
func WithOpenHook(hook func(name string, failures int)) CircuitOption {
	return func(cb *CircuitBreaker) {
		cb.onOpen = hook
	}
}

// WithClock overrides the breaker's clock for deterministic tests
func WithClock(now func() time.Time) CircuitOption {
	return func(cb *CircuitBreaker) {
		cb.now = now
	}
}

// NewCircuitBreaker creates a named circuit breaker
func NewCircuitBreaker(name string, opts ...CircuitOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 1,
		resetTimeout:     60 * time.Second,
		state:            StateClosed,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(cb)
	}

	return cb
}

// Execute runs fn under circuit breaker protection. When the circuit is
// open the call fails immediately with ErrCircuitOpen without invoking fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cb.mu.Lock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailTime) > cb.resetTimeout {
			cb.state = StateHalfOpen
			cb.failures = 0
			cb.successes = 0
			cb.logger.Info("Circuit breaker half-open", "breaker", cb.name)
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}

	// Half-open admits one trial at a time; everyone else fails fast
	// until the trial's result is recorded.
	if cb.state == StateHalfOpen {
		if cb.trialInFlight {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.trialInFlight = true
	}

	cb.lastAttemptTime = cb.now()
	cb.mu.Unlock()

	err := fn()
	cb.recordResult(err)
	return err
}

// recordResult updates circuit breaker state based on result
func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()

	cb.trialInFlight = false

	var opened bool
	var failures int
	if err != nil {
		cb.failures++
		cb.successes = 0
		cb.lastFailTime = cb.now()

		if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
			cb.state = StateOpen
			opened = true
			failures = cb.failures
			cb.logger.Error("Circuit breaker opened",
				"breaker", cb.name,
				"failures", cb.failures,
				"error", err.Error())
		}
	} else {
		cb.successes++
		cb.failures = 0

		if cb.state == StateHalfOpen && cb.successes >= cb.successThreshold {
			cb.state = StateClosed
			cb.logger.Info("Circuit breaker closed",
				"breaker", cb.name,
				"successes", cb.successes)
		}
	}
	cb.mu.Unlock()

	if opened && cb.onOpen != nil {
		cb.onOpen(cb.name, failures)
	}
}

// State returns the current circuit breaker state
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Failures returns the consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Reset manually closes the circuit breaker
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.trialInFlight = false
	cb.logger.Info("Circuit breaker reset", "breaker", cb.name)
}
