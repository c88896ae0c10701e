// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

// SQLiteAuditStore persists audit entries in SQLite.
type SQLiteAuditStore struct {
	db *sql.DB
}

// NewSQLiteAuditStore creates a SQLite-backed audit store and ensures
// the schema.
func NewSQLiteAuditStore(db *sql.DB) (*SQLiteAuditStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureAuditSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteAuditStore{db: db}, nil
}

// OpenSQLiteAuditStore opens (or creates) the database at path.
func OpenSQLiteAuditStore(path string) (*SQLiteAuditStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteAuditStore(db)
}

func ensureAuditSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS plan_audit_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			plan_id TEXT NOT NULL,
			step_index INTEGER NOT NULL,
			tool TEXT NOT NULL,
			status TEXT NOT NULL,
			outcome TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			params_json TEXT NOT NULL,
			error_text TEXT NOT NULL DEFAULT '',
			recorded_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_plan_audit_plan ON plan_audit_entries(plan_id);
		CREATE INDEX IF NOT EXISTS idx_plan_audit_tool ON plan_audit_entries(tool);
	`)
	return err
}

// Record stores a single audit entry.
func (s *SQLiteAuditStore) Record(ctx context.Context, entry AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plan_audit_entries (
			request_id, session_id, plan_id, step_index, tool, status, outcome, duration_ms, params_json, error_text, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.RequestID,
		entry.SessionID,
		entry.PlanID,
		entry.StepIndex,
		entry.Tool,
		entry.Status,
		entry.Outcome,
		entry.Duration,
		entry.Params,
		entry.Error,
		entry.At.UTC(),
	)
	return err
}

// List returns audit entries matching the filter in recording order.
func (s *SQLiteAuditStore) List(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	query := `
		SELECT request_id, session_id, plan_id, step_index, tool, status, outcome, duration_ms, params_json, error_text, recorded_at
		FROM plan_audit_entries
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.PlanID != "" {
		addFilter("plan_id = ?", filter.PlanID)
	}
	if filter.Tool != "" {
		addFilter("tool = ?", filter.Tool)
	}
	if filter.Outcome != "" {
		addFilter("outcome = ?", filter.Outcome)
	}
	query += where + " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var entry AuditEntry
		if err := rows.Scan(
			&entry.RequestID,
			&entry.SessionID,
			&entry.PlanID,
			&entry.StepIndex,
			&entry.Tool,
			&entry.Status,
			&entry.Outcome,
			&entry.Duration,
			&entry.Params,
			&entry.Error,
			&entry.At,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteAuditStore) Close() error {
	return s.db.Close()
}
