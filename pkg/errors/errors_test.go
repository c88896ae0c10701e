// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	cause := stderrors.New("network timeout")
	e := New(CodeLLMTimeout, "inference call timed out", cause)

	if e.Code != CodeLLMTimeout {
		t.Errorf("expected CodeLLMTimeout, got %v", e.Code)
	}
	if e.Err != cause {
		t.Errorf("expected cause to be preserved")
	}
	if !stderrors.Is(e, cause) {
		t.Errorf("expected errors.Is to traverse the wrapped error")
	}
	if !e.Retryable {
		t.Errorf("expected LLM timeout to be retryable")
	}
	if e.StatusCode != 504 {
		t.Errorf("expected status 504, got %d", e.StatusCode)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeInvalidInput, 400},
		{CodeUnauthorized, 401},
		{CodePermissionDenied, 403},
		{CodeToolNotFound, 404},
		{CodeRateLimited, 429},
		{CodeLLMUnavailable, 502},
		{CodeLLMTimeout, 504},
		{CodeInternal, 500},
		{CodeToolExecutionFailed, 500},
		{CodeSafetyBlocked, 400},
		{CodeNoImagesProvided, 400},
		{CodeImageLimitExceeded, 400},
	}
	for _, tt := range tests {
		if got := New(tt.code, "x", nil).StatusCode; got != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.code, tt.status, got)
		}
	}
}

func TestRetryability(t *testing.T) {
	retryable := map[Code]bool{
		CodeLLMTimeout:       true,
		CodeLLMUnavailable:   true,
		CodeInvalidInput:     false,
		CodePermissionDenied: false,
		CodeRateLimited:      false,
		CodeToolExecutionFailed: false,
	}
	for code, want := range retryable {
		if got := New(code, "x", nil).Retryable; got != want {
			t.Errorf("%s: expected retryable=%v, got %v", code, want, got)
		}
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Errorf("unclassified errors must not be retryable")
	}
}

func TestWrapClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"cancelled", context.Canceled, CodeLLMTimeout},
		{"deadline", context.DeadlineExceeded, CodeLLMTimeout},
		{"wrapped deadline", fmt.Errorf("chat: %w", context.DeadlineExceeded), CodeLLMTimeout},
		{"net op error", &net.OpError{Op: "dial", Err: stderrors.New("connect refused")}, CodeLLMUnavailable},
		{"conn refused text", stderrors.New("dial tcp 127.0.0.1:11434: connection refused"), CodeLLMUnavailable},
		{"plain", stderrors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.err).Code; got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestWrapPassthrough(t *testing.T) {
	orig := New(CodePermissionDenied, "missing tier", nil)
	wrapped := Wrap(fmt.Errorf("step 2: %w", orig))
	if wrapped.Code != CodePermissionDenied {
		t.Errorf("expected classified error to pass through, got %s", wrapped.Code)
	}
	if Wrap(nil) != nil {
		t.Errorf("wrapping nil must return nil")
	}
}

func TestUserMessage(t *testing.T) {
	e := New(CodeRateLimited, "too many requests", nil)
	ar := e.UserMessage(LocaleArabic)
	en := e.UserMessage(LocaleEnglish)
	if ar == "" || en == "" {
		t.Fatalf("expected bilingual messages for %s", e.Code)
	}
	if ar == en {
		t.Errorf("expected distinct locale texts")
	}
	// Unknown locale falls back to Arabic.
	if got := e.UserMessage(Locale("fr")); got != ar {
		t.Errorf("expected Arabic fallback, got %q", got)
	}
}

func TestEveryCodeHasBothLocales(t *testing.T) {
	codes := []Code{
		CodeInvalidInput, CodeUnauthorized, CodePermissionDenied, CodeRateLimited,
		CodeSafetyBlocked, CodeToolNotFound, CodeToolExecutionFailed,
		CodeLLMTimeout, CodeLLMUnavailable, CodeInternal,
		CodeNoImagesProvided, CodeImageLimitExceeded,
	}
	for _, code := range codes {
		msgs, ok := userMessages[code]
		if !ok {
			t.Errorf("%s: no user messages registered", code)
			continue
		}
		for _, loc := range []Locale{LocaleArabic, LocaleEnglish} {
			if msgs[loc] == "" {
				t.Errorf("%s: missing %s message", code, loc)
			}
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	e := New(CodeToolExecutionFailed, "tool failed", stderrors.New("boom")).
		WithContext("tool", "generate_study_plan")

	raw, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["code"] != "TOOL_EXECUTION_FAILED" {
		t.Errorf("expected code in JSON, got %v", decoded["code"])
	}
	if decoded["retryable"] != false {
		t.Errorf("expected retryable=false in JSON")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeSafetyBlocked, "x", nil)); got != CodeSafetyBlocked {
		t.Errorf("expected CodeSafetyBlocked, got %s", got)
	}
	if got := CodeOf(stderrors.New("raw")); got != CodeInternal {
		t.Errorf("expected CodeInternal for raw error, got %s", got)
	}
}

func TestWrapTimeoutFromRealDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()
	if got := Wrap(ctx.Err()).Code; got != CodeLLMTimeout {
		t.Errorf("expected CodeLLMTimeout, got %s", got)
	}
}
