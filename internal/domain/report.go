package domain

import "time"

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// StepReport is the per-step slice of a final report.
type StepReport struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Handler   string  `json:"handler,omitempty"`
	Attempts  int     `json:"attempts"`
	ElapsedMs float64 `json:"elapsed_ms"`
	ErrorKind string  `json:"error_kind,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Report is the serializable outcome of one run, terminal in either state.
// An aborted run still carries the results of every step that executed.
type Report struct {
	RunID          string             `json:"run_id"`
	Fingerprint    string             `json:"fingerprint"`
	SequenceLength int                `json:"sequence_length"`
	Status         RunStatus          `json:"status"`
	Partial        bool               `json:"partial"`
	Steps          []StepReport       `json:"steps"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
	ArtifactKey    string             `json:"artifact_key,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	EndedAt        time.Time          `json:"ended_at"`
	TotalElapsedMs float64            `json:"total_elapsed_ms"`
	Log            []string           `json:"log,omitempty"`
}
