// Package sqlite provides a single-file store for local development that
// satisfies the same repository contracts as the PostgreSQL adapters.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_credits (
  user_id TEXT PRIMARY KEY,
  balance INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  base_price REAL NOT NULL,
  selling_price REAL NOT NULL,
  length_in REAL NOT NULL,
  breadth_in REAL NOT NULL,
  height_in REAL NOT NULL,
  image_url TEXT NOT NULL,
  model_url TEXT,
  status TEXT NOT NULL,
  price_source TEXT NOT NULL DEFAULT 'recomputed',
  created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS model_jobs (
  task_id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  source_image_url TEXT NOT NULL,
  status TEXT NOT NULL,
  progress INTEGER NOT NULL DEFAULT 0,
  asset_url TEXT,
  attempts INTEGER NOT NULL DEFAULT 0,
  error_message TEXT,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS model_jobs_status_idx ON model_jobs (status, created_at);
CREATE TABLE IF NOT EXISTS design_batches (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  prompt TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS design_candidates (
  id TEXT PRIMARY KEY,
  batch_id TEXT NOT NULL REFERENCES design_batches(id),
  variation_index INTEGER NOT NULL,
  style_hint TEXT NOT NULL,
  image_url TEXT NOT NULL,
  pricing TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS usage_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  request_id TEXT,
  event_type TEXT NOT NULL,
  success INTEGER NOT NULL,
  latency_ms INTEGER NOT NULL,
  properties TEXT NOT NULL DEFAULT '{}',
  created_at INTEGER NOT NULL
);
`

// SQLite owns the database handle. Repository views are obtained through the
// accessor methods.
type SQLite struct {
	db *sql.DB
}

// Open creates or migrates the database at path. ":memory:" is accepted for
// tests.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection so ":memory:" databases are shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Ping verifies the connection is usable.
func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Credits() *Credits         { return &Credits{db: s.db} }
func (s *SQLite) Submissions() *Submissions { return &Submissions{db: s.db} }
func (s *SQLite) ModelJobs() *ModelJobs     { return &ModelJobs{db: s.db} }
func (s *SQLite) Batches() *Batches         { return &Batches{db: s.db} }
func (s *SQLite) Usage() *Usage             { return &Usage{db: s.db} }
