// Package history persists build and page records in SQLite. Incremental
// mode reads the latest page fingerprints back to skip unchanged pages.
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

// BuildRecord is one completed build.
type BuildRecord struct {
	BuildID   string
	Status    string
	Signature string
	Rendered  int
	Skipped   int
	Failed    int
	StartedAt time.Time
	Duration  time.Duration
}

// PageRecord is the outcome of one page within a build.
type PageRecord struct {
	BuildID     string
	Path        string
	Fingerprint string
	Outcome     string
	Duration    time.Duration
}

// Store wraps the database. Safe for the build's sequential use; no
// internal locking beyond SQLite's own.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		build_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		signature TEXT NOT NULL,
		rendered INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		outcome TEXT NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pages_path ON pages(path, id);
	CREATE INDEX IF NOT EXISTS idx_pages_build ON pages(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBuild inserts a completed build.
func (s *Store) RecordBuild(ctx context.Context, b BuildRecord) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, status, signature, rendered, skipped, failed, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		b.BuildID, b.Status, b.Signature, b.Rendered, b.Skipped, b.Failed,
		b.StartedAt.Unix(), b.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// RecordPage inserts one page outcome.
func (s *Store) RecordPage(ctx context.Context, p PageRecord) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO pages (build_id, path, fingerprint, outcome, duration_ms) VALUES (?, ?, ?, ?, ?)",
		p.BuildID, p.Path, p.Fingerprint, p.Outcome, p.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert page record: %w", err)
	}
	return nil
}

// LatestFingerprint returns the most recent fingerprint recorded for a page
// path, or empty when the page has never been built.
func (s *Store) LatestFingerprint(ctx context.Context, path string) (string, error) {
	var fp string
	err := s.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM pages WHERE path = ? ORDER BY id DESC LIMIT 1",
		path,
	).Scan(&fp)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query fingerprint: %w", err)
	}
	return fp, nil
}

// LatestBuildSignature returns the signature of the most recent build, or
// empty when none exists. A signature change (config or registered macros
// changed) invalidates all page fingerprints.
func (s *Store) LatestBuildSignature(ctx context.Context) (string, error) {
	var sig string
	err := s.db.QueryRowContext(ctx,
		"SELECT signature FROM builds ORDER BY started_at DESC, rowid DESC LIMIT 1",
	).Scan(&sig)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query build signature: %w", err)
	}
	return sig, nil
}

// RecentBuilds returns up to n builds, newest first.
func (s *Store) RecentBuilds(ctx context.Context, n int) ([]BuildRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT build_id, status, signature, rendered, skipped, failed, started_at, duration_ms FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?",
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var builds []BuildRecord
	for rows.Next() {
		var b BuildRecord
		var startedUnix, durationMS int64
		if err := rows.Scan(&b.BuildID, &b.Status, &b.Signature, &b.Rendered, &b.Skipped, &b.Failed, &startedUnix, &durationMS); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		b.StartedAt = time.Unix(startedUnix, 0)
		b.Duration = time.Duration(durationMS) * time.Millisecond
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
