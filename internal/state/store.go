// Package state records lifecycle run history in a SQLite database under the
// project's .pubctl directory. The inspect step lists recent entries.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded lifecycle step execution.
type Run struct {
	ID            int64
	TransactionID string
	Step          string
	Outcome       string
	Duration      time.Duration
	StartedAt     time.Time
}

// Store persists run history. Safe for sequential use within one process;
// lifecycle dispatch is single-threaded so no locking is required.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the database location for a project.
func DefaultPath(projectHome string) string {
	return filepath.Join(projectHome, ".pubctl", "state.db")
}

// Open opens (creating if needed) the run-history database.
// Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize state schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id TEXT NOT NULL,
		step TEXT NOT NULL,
		outcome TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		started_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_tx ON runs(transaction_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one run entry.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (transaction_id, step, outcome, duration_ms, started_at) VALUES (?, ?, ?, ?, ?)",
		run.TransactionID, run.Step, run.Outcome, run.Duration.Milliseconds(), run.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the newest run entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, transaction_id, step, outcome, duration_ms, started_at FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMS, startedUnix int64
		if err := rows.Scan(&r.ID, &r.TransactionID, &r.Step, &r.Outcome, &durationMS, &startedUnix); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.StartedAt = time.Unix(startedUnix, 0)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ByTransaction returns all entries recorded under one transaction id.
func (s *Store) ByTransaction(ctx context.Context, txID string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, transaction_id, step, outcome, duration_ms, started_at FROM runs WHERE transaction_id = ? ORDER BY id",
		txID,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs by transaction: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMS, startedUnix int64
		if err := rows.Scan(&r.ID, &r.TransactionID, &r.Step, &r.Outcome, &durationMS, &startedUnix); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.StartedAt = time.Unix(startedUnix, 0)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
