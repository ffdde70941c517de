// Package audit keeps a durable trail of tool invocations for postmortem
// diagnosis. Recording is best-effort; an audit failure must never fail the
// tool call it describes.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tool_calls (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    tool       TEXT    NOT NULL,
    status     TEXT    NOT NULL,
    detail     TEXT    NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL,
    called_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tool_calls_called_at ON tool_calls(called_at);
`

// Entry is one recorded tool invocation.
type Entry struct {
	ID       int64
	Tool     string
	Status   string
	Detail   string
	Duration time.Duration
	CalledAt time.Time
}

// Store persists tool-call entries in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the audit database at path. An empty path
// yields an in-memory store.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one entry.
func (s *Store) Record(ctx context.Context, tool, status, detail string, d time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_calls (tool, status, detail, duration_ms) VALUES (?, ?, ?, ?)`,
		tool, status, detail, d.Milliseconds())
	return err
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tool, status, detail, duration_ms, called_at
		 FROM tool_calls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.ID, &e.Tool, &e.Status, &e.Detail, &ms, &e.CalledAt); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
