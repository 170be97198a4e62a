// Package store persists vendor-probe results and run history in SQLite.
// The store is optional: every run works identically with it disabled, it
// only saves metaflac invocations on files that have not changed since the
// previous run.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ruipin/flac-batch-reencode/internal/jobs"
	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS vendor_cache (
	path TEXT PRIMARY KEY,
	size INTEGER NOT NULL,
	mtime_ns INTEGER NOT NULL,
	vendor TEXT NOT NULL,
	updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	succeeded INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL,
	applied_at TEXT DEFAULT CURRENT_TIMESTAMP
);
`

// RunRecord is one finished run in the history.
type RunRecord struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
	Skipped    int
}

// Store is a SQLite-backed vendor cache and run history.
// Safe for concurrent use.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex // serializes writers; SQLite allows only one anyway
	path string
}

// Open creates or opens the store at dbPath, creating parent directories as
// needed.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL mode keeps readers from blocking the writer.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			db.Close()
			return nil, fmt.Errorf("insert schema version: %w", err)
		}
	} else if err != nil {
		db.Close()
		return nil, fmt.Errorf("check schema version: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// GetVendor returns the cached vendor string for path, if the cached entry
// still matches the file's current size and mtime.
func (s *Store) GetVendor(path string, size, mtimeNS int64) (string, bool, error) {
	var (
		cachedSize  int64
		cachedMtime int64
		vendor      string
	)
	err := s.db.QueryRow(
		"SELECT size, mtime_ns, vendor FROM vendor_cache WHERE path = ?", path,
	).Scan(&cachedSize, &cachedMtime, &vendor)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query vendor cache: %w", err)
	}
	if cachedSize != size || cachedMtime != mtimeNS {
		// Stale entry; the file changed since it was probed.
		return "", false, nil
	}
	return vendor, true, nil
}

// PutVendor stores or replaces the cached vendor string for path.
func (s *Store) PutVendor(path string, size, mtimeNS int64, vendor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO vendor_cache (path, size, mtime_ns, vendor, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime_ns = excluded.mtime_ns,
			vendor = excluded.vendor,
			updated_at = CURRENT_TIMESTAMP
	`, path, size, mtimeNS, vendor)
	if err != nil {
		return fmt.Errorf("upsert vendor cache: %w", err)
	}
	return nil
}

// InvalidateVendor drops the cache entry for path. Called after a successful
// re-encode, whose new vendor tag is unknown without another probe.
func (s *Store) InvalidateVendor(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM vendor_cache WHERE path = ?", path); err != nil {
		return fmt.Errorf("invalidate vendor cache: %w", err)
	}
	return nil
}

// RecordRun appends a finished run's summary to the history.
func (s *Store) RecordRun(startedAt, finishedAt time.Time, sum jobs.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO runs (started_at, finished_at, succeeded, failed, skipped)
		VALUES (?, ?, ?, ?, ?)
	`,
		startedAt.UTC().Format(time.RFC3339),
		finishedAt.UTC().Format(time.RFC3339),
		sum.Succeeded, sum.Failed, sum.Skipped,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Runs returns the run history, most recent first.
func (s *Store) Runs() ([]RunRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, succeeded, failed, skipped
		FROM runs ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			r        RunRecord
			started  string
			finished string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Succeeded, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
