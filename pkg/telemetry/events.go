// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"log/slog"

	"github.com/maarifa/agentcore/pkg/core"
)

// LogEmitter writes plan and policy events to the structured logger.
// The trace-aware handler attaches span IDs when a span is active.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter returns an emitter backed by logger, or the default
// logger when nil.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit logs the event at a level matching its severity.
func (e *LogEmitter) Emit(ctx context.Context, ev core.Event) {
	attrs := []any{
		slog.String("event", string(ev.Type)),
		slog.String("request_id", ev.RequestID),
		slog.String("session_id", ev.SessionID),
	}
	for k, v := range ev.Payload {
		attrs = append(attrs, slog.Any(k, v))
	}

	switch ev.Type {
	case core.EventStepFailed, core.EventSafetyBlocked:
		e.logger.WarnContext(ctx, "agent event", attrs...)
	default:
		e.logger.InfoContext(ctx, "agent event", attrs...)
	}
}
