// Package resilience provides the retry and circuit-breaker patterns the
// planner wraps around its external service calls.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hznxin/tripmind/core"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// StateClosed allows all requests through
	StateClosed CircuitState = iota
	// StateOpen blocks all requests
	StateOpen
	// StateHalfOpen allows limited requests for testing
	StateHalfOpen
)

// String returns the string representation of the state
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrorClassifier determines which errors count toward circuit breaker
// thresholds.
type ErrorClassifier func(error) bool

// DefaultErrorClassifier only counts infrastructure errors, not user or
// configuration errors.
func DefaultErrorClassifier(err error) bool {
	if err == nil {
		return false
	}

	// Configuration errors - DON'T count (user error)
	if core.IsConfigurationError(err) {
		return false
	}

	// Client-side errors and provider rejections - DON'T count
	if core.IsClientError(err) || errors.Is(err, core.ErrRequestRejected) {
		return false
	}

	// Context cancellation - DON'T count (caller gave up)
	if errors.Is(err, context.Canceled) || errors.Is(err, core.ErrContextCanceled) {
		return false
	}

	// All other errors count as failures (network, timeout, bad payloads)
	return true
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	// Name identifies the circuit breaker in logs
	Name string

	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold int

	// RecoveryTimeout is how long to wait before attempting recovery
	RecoveryTimeout time.Duration

	// HalfOpenRequests is the number of test requests allowed half-open
	HalfOpenRequests int

	// Classifier decides which errors count as failures. Defaults to
	// DefaultErrorClassifier.
	Classifier ErrorClassifier

	// Logger is optional
	Logger core.Logger
}

// CircuitBreaker protects a dependency by failing fast once it keeps
// erroring, and probing it again after a recovery timeout.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	logger core.Logger

	mu           sync.Mutex
	state        CircuitState
	failures     int
	halfOpenSent int
	openedAt     time.Time
}

// NewCircuitBreaker creates a circuit breaker with sensible defaults for
// any zero config fields.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.HalfOpenRequests <= 0 {
		config.HalfOpenRequests = 1
	}
	if config.Classifier == nil {
		config.Classifier = DefaultErrorClassifier
	}
	logger := config.Logger
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &CircuitBreaker{
		config: config,
		logger: logger,
		state:  StateClosed,
	}
}

// CanExecute reports whether a request may proceed. In the open state it
// transitions to half-open once the recovery timeout has elapsed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.config.RecoveryTimeout {
			cb.transition(StateHalfOpen)
			cb.halfOpenSent = 1
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenSent < cb.config.HalfOpenRequests {
			cb.halfOpenSent++
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess notes a successful call. A half-open success closes the
// circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state != StateClosed {
		cb.transition(StateClosed)
	}
}

// RecordFailure notes a failed call. Enough consecutive failures open
// the circuit; any half-open failure re-opens it.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.openedAt = time.Now()
		cb.transition(StateOpen)
	}
}

// RecordResult notes the outcome of a call. Only errors the classifier
// counts record a failure. Unclassified errors (4xx rejections, caller
// cancellation) record a success: the dependency responded, so a
// half-open probe must close the circuit rather than strand it.
func (cb *CircuitBreaker) RecordResult(err error) {
	if err != nil && cb.config.Classifier(err) {
		cb.RecordFailure()
		return
	}
	cb.RecordSuccess()
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute runs fn under the breaker, recording the outcome through the
// classifier.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !cb.CanExecute() {
		return core.ErrCircuitBreakerOpen
	}
	err := fn()
	cb.RecordResult(err)
	return err
}

// transition must be called with the mutex held.
func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	cb.state = to
	if from == to {
		return
	}
	cb.logger.Info("Circuit breaker state change", map[string]interface{}{
		"breaker": cb.config.Name,
		"from":    from.String(),
		"to":      to.String(),
	})
}
