// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/maarifa/agentcore/pkg/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		IsRetryable:  errors.IsRetryable,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := fastRetry(3).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.Newf(errors.CodeLLMTimeout, "slow provider")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := fastRetry(5).Do(context.Background(), func() error {
		calls++
		return errors.Newf(errors.CodeInvalidInput, "bad request")
	})
	if errors.CodeOf(err) != errors.CodeInvalidInput {
		t.Fatalf("expected the original error back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("non-retryable errors must not be retried, got %d attempts", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastRetry(3).Do(context.Background(), func() error {
		calls++
		return errors.Newf(errors.CodeLLMUnavailable, "down")
	})
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if errors.CodeOf(err) != errors.CodeLLMUnavailable {
		t.Errorf("last error must be returned, got %v", err)
	}
}

func TestRetryHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := fastRetry(3).WithInitialDelay(time.Hour)
	err := rc.Do(ctx, func() error {
		return errors.Newf(errors.CodeLLMTimeout, "slow")
	})
	if errors.CodeOf(err) != errors.CodeLLMTimeout {
		t.Errorf("canceled retry must surface a timeout code, got %v", err)
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	value, err := DoWithResult(context.Background(), fastRetry(2), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.Newf(errors.CodeLLMUnavailable, "down")
		}
		return "ok", nil
	})
	if err != nil || value != "ok" {
		t.Fatalf("expected ok, got %q %v", value, err)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if errors.CodeOf(err) != errors.CodeLLMTimeout {
		t.Fatalf("expected LLM_TIMEOUT, got %v", err)
	}
	if !errors.IsRetryable(err) {
		t.Errorf("timeouts must be retryable")
	}

	if err := WithTimeout(context.Background(), time.Second, func(context.Context) error { return nil }); err != nil {
		t.Errorf("fast path must pass through, got %v", err)
	}
}

func TestWithTimeoutResult(t *testing.T) {
	value, err := WithTimeoutResult(context.Background(), time.Second, func(context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || value != 42 {
		t.Fatalf("expected 42, got %d %v", value, err)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          10 * time.Millisecond,
		Name:             "llm",
	})
	ctx := context.Background()
	boom := stderrors.New("down")

	for i := 0; i < 2; i++ {
		_ = cb.Call(ctx, func() error { return boom })
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open after threshold, got %s", cb.State())
	}

	err := cb.Call(ctx, func() error {
		t.Fatal("open circuit must not invoke fn")
		return nil
	})
	if errors.CodeOf(err) != errors.CodeLLMUnavailable {
		t.Errorf("open circuit must present as LLM_UNAVAILABLE, got %v", err)
	}

	time.Sleep(15 * time.Millisecond)
	if err := cb.Call(ctx, func() error { return nil }); err != nil {
		t.Fatalf("half-open probe should pass, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		Timeout:          5 * time.Millisecond,
	})
	ctx := context.Background()

	_ = cb.Call(ctx, func() error { return stderrors.New("down") })
	time.Sleep(10 * time.Millisecond)
	_ = cb.Call(ctx, func() error { return stderrors.New("still down") })

	if cb.State() != StateOpen {
		t.Errorf("failed probe must reopen the circuit, got %s", cb.State())
	}
}
