package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"ledgerhawk-hq/ledgerhawk/pkg/findings"
)

// SQLiteStore implements Store using SQLite for persistence.
// It is suitable for single-instance deployments where runs must
// survive restarts.
//
// The store uses a write-ahead log (WAL) for better concurrent read
// performance. Findings and the skipped set are stored as JSON columns;
// query patterns are by run ID and by finish time, so no per-finding
// rows are needed.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_runs (
	id TEXT PRIMARY KEY,
	record_name TEXT NOT NULL,
	state TEXT NOT NULL,
	cause TEXT NOT NULL DEFAULT '',
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	evaluated INTEGER NOT NULL,
	findings TEXT NOT NULL,
	skipped TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_audit_runs_finished_at ON audit_runs(finished_at);
`

// NewSQLiteStore opens or creates the database at path with defaults.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteStoreWithConfig opens or creates the database with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveRun implements Store.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *findings.Run) error {
	findingsJSON, err := json.Marshal(run.Findings)
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}
	skipped := run.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	skippedJSON, err := json.Marshal(skipped)
	if err != nil {
		return fmt.Errorf("failed to marshal skipped set: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_runs (id, record_name, state, cause, started_at, finished_at, evaluated, findings, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RecordName, run.State, run.Cause,
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		run.Evaluated, string(findingsJSON), string(skippedJSON),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &DuplicateError{ID: run.ID}
		}
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun implements Store.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*findings.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, record_name, state, cause, started_at, finished_at, evaluated, findings, skipped
		FROM audit_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{ID: id}
	}
	return run, err
}

// ListRuns implements Store.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*findings.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_name, state, cause, started_at, finished_at, evaluated, findings, skipped
		FROM audit_runs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*findings.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// DeleteOlderThan implements Store.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_runs WHERE finished_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	return res.RowsAffected()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*findings.Run, error) {
	var (
		run                    findings.Run
		startedAt, finishedAt  int64
		findingsJSON, skippedJSON string
	)
	err := row.Scan(&run.ID, &run.RecordName, &run.State, &run.Cause,
		&startedAt, &finishedAt, &run.Evaluated, &findingsJSON, &skippedJSON)
	if err != nil {
		return nil, err
	}

	run.StartedAt = time.Unix(0, startedAt)
	run.FinishedAt = time.Unix(0, finishedAt)

	if err := json.Unmarshal([]byte(findingsJSON), &run.Findings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal findings for run %q: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(skippedJSON), &run.Skipped); err != nil {
		return nil, fmt.Errorf("failed to unmarshal skipped set for run %q: %w", run.ID, err)
	}
	if len(run.Skipped) == 0 {
		run.Skipped = nil
	}
	return &run, nil
}
