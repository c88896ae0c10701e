package core

import (
	"context"
	"time"
)

// EventType identifies a semantic event emitted by the orchestration core.
type EventType string

const (
	EventStepStarted   EventType = "plan.step.started"
	EventStepCompleted EventType = "plan.step.completed"
	EventStepFailed    EventType = "plan.step.failed"
	EventStepSkipped   EventType = "plan.step.skipped"
	EventToolExecuted  EventType = "tool.executed"
	EventSafetyBlocked EventType = "policy.safety.blocked"
	EventRateLimited   EventType = "policy.rate.limited"
)

// Event captures a semantic streaming/logging event.
type Event struct {
	Type      EventType
	RequestID string
	SessionID string
	Timestamp time.Time
	Payload   map[string]any
}

// EventEmitter receives semantic events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopEventEmitter is a default no-op implementation.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(_ context.Context, _ Event) {}

// NewEvent builds an event with the current timestamp.
func NewEvent(eventType EventType, requestID, sessionID string, payload map[string]any) Event {
	return Event{
		Type:      eventType,
		RequestID: requestID,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
