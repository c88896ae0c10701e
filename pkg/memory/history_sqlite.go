// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/maarifa/agentcore/pkg/errors"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS session_turns (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_turns_session ON session_turns (session_id, created_at);
`

// SQLiteHistory persists session transcripts in SQLite. It shares the
// database file with the plan audit store in single-node deployments.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory opens (or creates) the database at path.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Newf(errors.CodeInternal, "memory: open history db: %v", err)
	}
	return OpenSQLiteHistory(db)
}

// OpenSQLiteHistory wraps an existing handle and applies the schema.
func OpenSQLiteHistory(db *sql.DB) (*SQLiteHistory, error) {
	if _, err := db.Exec(historySchema); err != nil {
		return nil, errors.Newf(errors.CodeInternal, "memory: apply history schema: %v", err)
	}
	return &SQLiteHistory{db: db}, nil
}

// Append inserts a turn, assigning ID and timestamp when missing.
func (h *SQLiteHistory) Append(ctx context.Context, turn Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO session_turns (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		turn.ID, turn.SessionID, turn.Role, turn.Content, turn.CreatedAt,
	)
	if err != nil {
		return errors.Newf(errors.CodeInternal, "memory: insert turn: %v", err)
	}
	return nil
}

// Recent returns the last limit turns in chronological order.
func (h *SQLiteHistory) Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	query := `SELECT id, session_id, role, content, created_at FROM session_turns
		WHERE session_id = ? ORDER BY rowid DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Newf(errors.CodeInternal, "memory: query turns: %v", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, errors.Newf(errors.CodeInternal, "memory: scan turn: %v", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Newf(errors.CodeInternal, "memory: iterate turns: %v", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Clear removes a session's transcript.
func (h *SQLiteHistory) Clear(ctx context.Context, sessionID string) error {
	if _, err := h.db.ExecContext(ctx, `DELETE FROM session_turns WHERE session_id = ?`, sessionID); err != nil {
		return errors.Newf(errors.CodeInternal, "memory: clear session: %v", err)
	}
	return nil
}

// Close closes the database handle.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}
