// SPDX-License-Identifier: Apache-2.0

// Package errors provides the closed, typed error taxonomy for the
// orchestration core. Every failure that leaves the core carries exactly
// one Code, a retryability flag, and bilingual user-facing text.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
)

// Code classifies core errors for monitoring, recovery, and user display.
type Code string

const (
	// CodeInvalidInput indicates the caller supplied malformed input.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeUnauthorized indicates the caller is not authenticated.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodePermissionDenied indicates the caller's role lacks the permission.
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// CodeRateLimited indicates the caller exceeded a rate-limit window.
	CodeRateLimited Code = "RATE_LIMITED"

	// CodeSafetyBlocked indicates the input was blocked by the safety screen.
	CodeSafetyBlocked Code = "SAFETY_BLOCKED"

	// CodeToolNotFound indicates no enabled capability matched the name.
	CodeToolNotFound Code = "TOOL_NOT_FOUND"

	// CodeToolExecutionFailed indicates a capability's handler failed.
	CodeToolExecutionFailed Code = "TOOL_EXECUTION_FAILED"

	// CodeLLMTimeout indicates an inference call was cancelled or timed out.
	CodeLLMTimeout Code = "LLM_TIMEOUT"

	// CodeLLMUnavailable indicates the inference backend was unreachable.
	CodeLLMUnavailable Code = "LLM_UNAVAILABLE"

	// CodeInternal indicates an unclassified internal failure.
	CodeInternal Code = "INTERNAL_ERROR"

	// CodeNoImagesProvided indicates an image-batch capability received none.
	CodeNoImagesProvided Code = "NO_IMAGES_PROVIDED"

	// CodeImageLimitExceeded indicates an image batch was over the maximum.
	CodeImageLimitExceeded Code = "IMAGE_LIMIT_EXCEEDED"
)

// Error is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As.
type Error struct {
	Code       Code
	Message    string
	Err        error
	Context    map[string]any
	Retryable  bool
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Err       string         `json:"error,omitempty"`
		Retryable bool           `json:"retryable"`
		Status    int            `json:"status"`
		Context   map[string]any `json:"context,omitempty"`
	}{
		Code:      string(e.Code),
		Message:   e.Message,
		Retryable: e.Retryable,
		Status:    e.StatusCode,
		Context:   e.Context,
	}
	if e.Err != nil {
		out.Err = e.Err.Error()
	}
	return json.Marshal(out)
}

// New creates an Error with the given code, message, and cause.
// Status and retryability are derived from the code.
func New(code Code, msg string, cause error) *Error {
	return &Error{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]any),
		Retryable:  codeRetryable(code),
		StatusCode: codeToStatus(code),
	}
}

// Newf creates an Error with a formatted message and no cause.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsRetryable reports whether err carries a retryable taxonomy code.
// Unclassified errors are not retryable.
func IsRetryable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// CodeOf returns the taxonomy code carried by err, or CodeInternal
// when the error was never classified.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Wrap classifies a foreign error into the taxonomy. Errors that already
// carry a code pass through unchanged. Cancellation maps to CodeLLMTimeout,
// transport failures to CodeLLMUnavailable, and everything else to
// CodeInternal, so every exit path from the core raises exactly one kind.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return New(CodeLLMTimeout, "call cancelled or timed out", err)
	case isTransportError(err):
		return New(CodeLLMUnavailable, "backend unreachable", err)
	default:
		return New(CodeInternal, "internal error", err)
	}
}

func isTransportError(err error) bool {
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{"connection refused", "connection reset", "no such host", "broken pipe"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func codeToStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeSafetyBlocked, CodeNoImagesProvided, CodeImageLimitExceeded:
		return 400
	case CodeUnauthorized:
		return 401
	case CodePermissionDenied:
		return 403
	case CodeToolNotFound:
		return 404
	case CodeRateLimited:
		return 429
	case CodeLLMUnavailable:
		return 502
	case CodeLLMTimeout:
		return 504
	default:
		return 500
	}
}

func codeRetryable(code Code) bool {
	return code == CodeLLMTimeout || code == CodeLLMUnavailable
}
