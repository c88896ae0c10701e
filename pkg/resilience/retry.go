// SPDX-License-Identifier: Apache-2.0

// Package resilience provides retry, timeout and circuit breaker
// helpers guided by the error taxonomy's retryability flags.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/maarifa/agentcore/pkg/errors"
)

// RetryConfig controls retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (at least 1).
	MaxAttempts int

	// InitialDelay is the first backoff delay.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// Multiplier for exponential backoff (default 2.0).
	Multiplier float64

	// IsRetryable decides whether an error is worth another attempt.
	// Defaults to the taxonomy's retryability (timeouts and provider
	// unavailability only).
	IsRetryable func(error) bool

	// Jitter between 0 and 1; 0.1 means ±10%.
	Jitter float64
}

// DefaultRetryConfig returns the standard config for provider calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
		IsRetryable:  errors.IsRetryable,
	}
}

// WithMaxAttempts returns a copy with MaxAttempts set.
func (rc RetryConfig) WithMaxAttempts(n int) RetryConfig {
	rc.MaxAttempts = n
	return rc
}

// WithInitialDelay returns a copy with InitialDelay set.
func (rc RetryConfig) WithInitialDelay(d time.Duration) RetryConfig {
	rc.InitialDelay = d
	return rc
}

// WithIsRetryable returns a copy with IsRetryable set.
func (rc RetryConfig) WithIsRetryable(fn func(error) bool) RetryConfig {
	rc.IsRetryable = fn
	return rc
}

// Do executes fn with retries, returning the last error when every
// attempt fails. Non-retryable errors return immediately.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	if rc.MaxAttempts < 1 {
		rc.MaxAttempts = 1
	}
	if rc.IsRetryable == nil {
		rc.IsRetryable = errors.IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt < rc.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.New(errors.CodeLLMTimeout, "context canceled during retry", ctx.Err()).
					WithContext("attempt", attempt).
					WithContext("max_attempts", rc.MaxAttempts)
			case <-time.After(rc.backoff(attempt)):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !rc.IsRetryable(err) {
			return err
		}
	}
	return lastErr
}

// DoWithResult executes fn with retries, returning the result of the
// last attempt.
func DoWithResult[T any](ctx context.Context, rc RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	err := rc.Do(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

func (rc RetryConfig) backoff(attempt int) time.Duration {
	multiplier := rc.Multiplier
	if multiplier == 0 {
		multiplier = 2.0
	}

	delay := time.Duration(float64(rc.InitialDelay) * math.Pow(multiplier, float64(attempt)))
	if rc.MaxDelay > 0 && delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}

	if rc.Jitter > 0 {
		jitterRange := float64(delay) * rc.Jitter * 2 * (rand.Float64() - 0.5)
		delay = time.Duration(float64(delay) + jitterRange)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}
