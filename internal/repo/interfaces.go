// Package repo defines the persistence contracts for prediction runs and
// their step execution ledger.
package repo

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// PredictionRunRecord is the stored outcome of one pipeline run. Report is
// the full report document as JSON.
type PredictionRunRecord struct {
	RunID          string
	Fingerprint    string
	SequenceLength int
	Status         string
	Partial        bool
	Report         []byte
	ArtifactKey    string
	StartedAt      time.Time
	EndedAt        time.Time
}

// StepExecutionRecord is one attempt of one step. The (run_id, step_name,
// handler, attempt) key is unique so fallback attempts keep their own rows;
// replays are dropped, not overwritten.
type StepExecutionRecord struct {
	ID           string
	RunID        string
	StepName     string
	Handler      string
	Attempt      int
	Status       string
	ErrorKind    string
	ErrorMessage string
	ElapsedMs    float64
	RecordedAt   time.Time
}

type RunFilter struct {
	Status string
	Limit  int
}

// PredictionRunRepository stores completed run reports.
type PredictionRunRepository interface {
	Insert(ctx context.Context, record PredictionRunRecord) error
	Get(ctx context.Context, runID string) (PredictionRunRecord, error)
	List(ctx context.Context, filter RunFilter) ([]PredictionRunRecord, error)
}

// StepExecutionRepository is the append-only attempt ledger.
type StepExecutionRepository interface {
	InsertAttempt(ctx context.Context, record StepExecutionRecord) (bool, error)
	ListByRun(ctx context.Context, runID string) ([]StepExecutionRecord, error)
}
