package core

import (
	"context"

	"github.com/google/uuid"
)

// ToolContext is the per-call value object handed to every capability.
// It is created fresh per inbound request, never shared across requests,
// and read-only to capabilities.
type ToolContext struct {
	SessionID string
	UserID    string
	Role      Role // empty for guests
	Locale    string
	RequestID string
}

// NewToolContext creates a context for one inbound request, generating
// a request id used to correlate logs, audit entries, and cache keys.
func NewToolContext(sessionID, userID string, role Role, locale string) *ToolContext {
	return &ToolContext{
		SessionID: sessionID,
		UserID:    userID,
		Role:      role,
		Locale:    locale,
		RequestID: uuid.NewString(),
	}
}

// Identifier returns the value rate limits key on: the user id when
// authenticated, otherwise the session id.
func (tc *ToolContext) Identifier() string {
	if tc.UserID != "" {
		return tc.UserID
	}
	return tc.SessionID
}

// Authenticated reports whether the caller carries a known role.
func (tc *ToolContext) Authenticated() bool {
	return tc.Role.Known() && tc.Role != RoleGuest
}

type requestIDKey struct{}

// WithRequestID attaches a request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id if present.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}
