package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hznxin/tripmind/core"
)

func fastRetryConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryRecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		if calls < 3 {
			return core.ErrServiceUnavailable
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return core.ErrTimeout
	})
	if !errors.Is(err, core.ErrMaxRetriesExceeded) {
		t.Errorf("error = %v, want ErrMaxRetriesExceeded", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return core.ErrInvalidSelection
	})
	if !errors.Is(err, core.ErrInvalidSelection) {
		t.Errorf("error = %v, want the original non-retryable error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on user error)", calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(3), func() error {
		return core.ErrTimeout
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRetryWithCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "t", FailureThreshold: 2, RecoveryTimeout: time.Minute})

	err := RetryWithCircuitBreaker(context.Background(), fastRetryConfig(5), cb, func() error {
		return core.ErrServiceUnavailable
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	// Two failures trip the breaker; the remaining attempts short-circuit.
	if cb.State() != StateOpen {
		t.Errorf("breaker state = %v, want open", cb.State())
	}
}
