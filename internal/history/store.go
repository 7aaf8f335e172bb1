// Package history persists run records, per-stage outcomes and fan-out
// results so past releases can be inspected with `releasekit history`.
package history

import (
	"context"
	"time"
)

// RunRecord is one pipeline run.
type RunRecord struct {
	RunID      string
	Branch     string
	Channel    string
	Version    string
	CommitSHA  string
	StartedAt  time.Time
	FinishedAt time.Time // zero until completed
	ExitCode   int
}

// OutcomeRecord is one stage execution within a run.
type OutcomeRecord struct {
	ID        int64
	RunID     string
	Unit      string
	Stage     string
	Succeeded bool
	ExitCode  int
	Message   string
	CreatedAt time.Time
}

// FanOutRecord is one fan-out destination attempt within a run.
type FanOutRecord struct {
	ID        int64
	RunID     string
	Target    string
	Succeeded bool
	Message   string
	CreatedAt time.Time
}

// Store defines the interface for persisting and retrieving run history.
type Store interface {
	// RecordRunStart inserts the run row when the run identity is fixed.
	RecordRunStart(ctx context.Context, run RunRecord) error

	// RecordOutcome appends one stage outcome.
	RecordOutcome(ctx context.Context, o OutcomeRecord) error

	// RecordFanOut appends one fan-out destination result.
	RecordFanOut(ctx context.Context, f FanOutRecord) error

	// CompleteRun stamps the run's final exit code and finish time.
	CompleteRun(ctx context.Context, runID string, exitCode int, finishedAt time.Time) error

	// Runs returns the most recent runs, newest first.
	Runs(ctx context.Context, limit int) ([]RunRecord, error)

	// Outcomes returns a run's stage outcomes in execution order.
	Outcomes(ctx context.Context, runID string) ([]OutcomeRecord, error)

	// FanOuts returns a run's fan-out results in attempt order.
	FanOuts(ctx context.Context, runID string) ([]FanOutRecord, error)

	// Close closes the store and releases resources.
	Close() error
}
