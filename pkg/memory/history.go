// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Turn is one message in a session transcript.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // user, assistant, tool
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// History stores ordered session transcripts for multi-turn requests.
// Unlike the vector store this keeps exact sequences, not embeddings.
type History interface {
	// Append adds a turn to the session.
	Append(ctx context.Context, turn Turn) error
	// Recent returns the last limit turns in chronological order.
	Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error)
	// Clear removes all turns for a session.
	Clear(ctx context.Context, sessionID string) error
}

// InMemoryHistory is a map-backed History.
type InMemoryHistory struct {
	mu    sync.RWMutex
	turns map[string][]Turn
}

// NewInMemoryHistory returns an empty history.
func NewInMemoryHistory() *InMemoryHistory {
	return &InMemoryHistory{turns: make(map[string][]Turn)}
}

// Append adds a turn, assigning ID and timestamp when missing.
func (h *InMemoryHistory) Append(_ context.Context, turn Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns[turn.SessionID] = append(h.turns[turn.SessionID], turn)
	return nil
}

// Recent returns the last limit turns in chronological order. limit <= 0
// returns the full transcript.
func (h *InMemoryHistory) Recent(_ context.Context, sessionID string, limit int) ([]Turn, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	turns := h.turns[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Clear removes a session's transcript.
func (h *InMemoryHistory) Clear(_ context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, sessionID)
	return nil
}
