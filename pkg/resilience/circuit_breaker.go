// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/maarifa/agentcore/pkg/errors"
)

// CircuitBreakerState is the current breaker state.
type CircuitBreakerState string

const (
	// StateClosed passes calls through normally.
	StateClosed CircuitBreakerState = "closed"

	// StateOpen rejects calls immediately.
	StateOpen CircuitBreakerState = "open"

	// StateHalfOpen probes whether the downstream recovered.
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig configures a breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold opens the circuit after this many consecutive
	// failures.
	FailureThreshold int

	// SuccessThreshold closes the circuit after this many successes in
	// half-open.
	SuccessThreshold int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// Name identifies the breaker in errors and logs.
	Name string
}

// CircuitBreaker guards a downstream dependency, typically the LLM
// provider or the vector store.
type CircuitBreaker struct {
	config       CircuitBreakerConfig
	state        CircuitBreakerState
	failures     int
	successes    int
	lastFailTime time.Time
	mu           sync.Mutex
}

// NewCircuitBreaker creates a breaker with defaults filled in.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold < 1 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = 2
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Name == "" {
		config.Name = "circuit_breaker"
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Call executes fn if the circuit allows. While open it returns a
// retryable LLM_UNAVAILABLE without invoking fn.
func (cb *CircuitBreaker) Call(_ context.Context, fn func() error) error {
	cb.mu.Lock()

	if cb.state == StateOpen {
		if time.Since(cb.lastFailTime) > cb.config.Timeout {
			cb.state = StateHalfOpen
			cb.failures = 0
			cb.successes = 0
		} else {
			cb.mu.Unlock()
			return errors.Newf(errors.CodeLLMUnavailable, "circuit breaker %q open", cb.config.Name)
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.successes = 0
		cb.lastFailTime = time.Now()
		if cb.failures >= cb.config.FailureThreshold || cb.state == StateHalfOpen {
			cb.state = StateOpen
			cb.failures = 0
		}
		return err
	}

	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failures = 0
			cb.successes = 0
		}
	case StateClosed:
		cb.failures = 0
	}
	return nil
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
}
