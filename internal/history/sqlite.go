package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the history database.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		branch TEXT NOT NULL,
		channel TEXT NOT NULL,
		version TEXT NOT NULL,
		commit_sha TEXT,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		exit_code INTEGER
	);
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		unit TEXT NOT NULL,
		stage TEXT NOT NULL,
		succeeded INTEGER NOT NULL,
		exit_code INTEGER NOT NULL,
		message TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS fanouts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		target TEXT NOT NULL,
		succeeded INTEGER NOT NULL,
		message TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_fanouts_run ON fanouts(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) RecordRunStart(ctx context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, branch, channel, version, commit_sha, started_at) VALUES (?, ?, ?, ?, ?, ?)",
		run.RunID, run.Branch, run.Channel, run.Version, run.CommitSHA, run.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordOutcome(ctx context.Context, o OutcomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := o.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO outcomes (run_id, unit, stage, succeeded, exit_code, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		o.RunID, o.Unit, o.Stage, boolToInt(o.Succeeded), o.ExitCode, o.Message, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordFanOut(ctx context.Context, f FanOutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO fanouts (run_id, target, succeeded, message, created_at) VALUES (?, ?, ?, ?, ?)",
		f.RunID, f.Target, boolToInt(f.Succeeded), f.Message, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert fanout: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, exitCode int, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, exit_code = ? WHERE run_id = ?",
		finishedAt.Unix(), exitCode, runID,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, branch, channel, version, commit_sha, started_at, finished_at, exit_code FROM runs ORDER BY started_at DESC, run_id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started int64
		var finished, exitCode sql.NullInt64
		var commit sql.NullString
		if err := rows.Scan(&r.RunID, &r.Branch, &r.Channel, &r.Version, &commit, &started, &finished, &exitCode); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CommitSHA = commit.String
		r.StartedAt = time.Unix(started, 0).UTC()
		if finished.Valid {
			r.FinishedAt = time.Unix(finished.Int64, 0).UTC()
		}
		r.ExitCode = int(exitCode.Int64)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Outcomes(ctx context.Context, runID string) ([]OutcomeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, unit, stage, succeeded, exit_code, message, created_at FROM outcomes WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []OutcomeRecord
	for rows.Next() {
		var o OutcomeRecord
		var succeeded int
		var message sql.NullString
		var created int64
		if err := rows.Scan(&o.ID, &o.RunID, &o.Unit, &o.Stage, &succeeded, &o.ExitCode, &message, &created); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Succeeded = succeeded != 0
		o.Message = message.String
		o.CreatedAt = time.Unix(created, 0).UTC()
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func (s *SQLiteStore) FanOuts(ctx context.Context, runID string) ([]FanOutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, target, succeeded, message, created_at FROM fanouts WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query fanouts: %w", err)
	}
	defer rows.Close()

	var fanouts []FanOutRecord
	for rows.Next() {
		var f FanOutRecord
		var succeeded int
		var message sql.NullString
		var created int64
		if err := rows.Scan(&f.ID, &f.RunID, &f.Target, &succeeded, &message, &created); err != nil {
			return nil, fmt.Errorf("scan fanout: %w", err)
		}
		f.Succeeded = succeeded != 0
		f.Message = message.String
		f.CreatedAt = time.Unix(created, 0).UTC()
		fanouts = append(fanouts, f)
	}
	return fanouts, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
