// Package history persists one row per sorting run backed by SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one finished (or aborted) sorting run.
type Run struct {
	ID                string
	StartedAt         time.Time
	FinishedAt        time.Time
	State             string
	Source            string
	Dest              string
	DedupeMode        string
	Model             string
	Scanned           int
	Processed         int
	DuplicatesRemoved int
	CategoriesUsed    int
	Fallbacks         int
	Skipped           int
	ElapsedMS         int64
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    state TEXT NOT NULL,
    source TEXT NOT NULL,
    dest TEXT NOT NULL,
    dedupe_mode TEXT NOT NULL,
    model TEXT NOT NULL,
    scanned INTEGER NOT NULL,
    processed INTEGER NOT NULL,
    duplicates_removed INTEGER NOT NULL,
    categories_used INTEGER NOT NULL,
    fallbacks INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    elapsed_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Open initializes or connects to the history database.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one run row.
func (s *Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, state, source, dest, dedupe_mode,
            model, scanned, processed, duplicates_removed, categories_used,
            fallbacks, skipped, elapsed_ms
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.State,
		run.Source,
		run.Dest,
		run.DedupeMode,
		run.Model,
		run.Scanned,
		run.Processed,
		run.DuplicatesRemoved,
		run.CategoriesUsed,
		run.Fallbacks,
		run.Skipped,
		run.ElapsedMS,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, started_at, finished_at, state, source, dest, dedupe_mode,
            model, scanned, processed, duplicates_removed, categories_used,
            fallbacks, skipped, elapsed_ms
        FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(
			&run.ID, &started, &finished, &run.State, &run.Source, &run.Dest,
			&run.DedupeMode, &run.Model, &run.Scanned, &run.Processed,
			&run.DuplicatesRemoved, &run.CategoriesUsed, &run.Fallbacks,
			&run.Skipped, &run.ElapsedMS,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
