// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"time"

	"github.com/maarifa/agentcore/pkg/errors"
)

// WithTimeout executes fn with a deadline. Exceeding it yields a
// retryable LLM_TIMEOUT. A zero duration means no deadline.
func WithTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	if d == 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case <-ctx.Done():
		return errors.New(errors.CodeLLMTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", d.String())
	case err := <-done:
		return err
	}
}

// WithTimeoutResult is WithTimeout for functions returning a value.
func WithTimeoutResult[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if d == 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := fn(ctx)
		done <- result{value, err}
	}()

	select {
	case <-ctx.Done():
		return zero, errors.New(errors.CodeLLMTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", d.String())
	case res := <-done:
		return res.value, res.err
	}
}
