// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// maxAuditParamsLen bounds the serialized params stored per audit entry.
const maxAuditParamsLen = 256

// AuditEntry records one step transition. Successes and failures share
// this shape; Outcome distinguishes them.
type AuditEntry struct {
	RequestID string
	SessionID string
	PlanID    string
	StepIndex int
	Tool      string
	Status    string
	Outcome   string
	Duration  int64 // milliseconds
	Params    string
	Error     string
	At        time.Time
}

// AuditStore persists step audit entries.
type AuditStore interface {
	Record(ctx context.Context, entry AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

// AuditFilter limits audit queries.
type AuditFilter struct {
	PlanID  string
	Tool    string
	Outcome string
	Limit   int
}

// MemoryAuditStore keeps audit entries in memory.
type MemoryAuditStore struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// NewMemoryAuditStore returns an in-memory audit store.
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

// Record appends an audit entry.
func (s *MemoryAuditStore) Record(_ context.Context, entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns filtered audit entries in recording order.
func (s *MemoryAuditStore) List(_ context.Context, filter AuditFilter) ([]AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AuditEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if filter.PlanID != "" && entry.PlanID != filter.PlanID {
			continue
		}
		if filter.Tool != "" && entry.Tool != filter.Tool {
			continue
		}
		if filter.Outcome != "" && entry.Outcome != filter.Outcome {
			continue
		}
		out = append(out, entry)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// truncateParams serializes params for audit, hard-bounded so oversized
// inputs never bloat the audit trail.
func truncateParams(params map[string]any) string {
	if len(params) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return "{}"
	}
	if len(raw) > maxAuditParamsLen {
		return string(raw[:maxAuditParamsLen]) + "…"
	}
	return string(raw)
}
