package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// RunState is the mutable record of one pipeline execution. It is owned by
// exactly one control loop; nothing is shared across concurrent runs.
type RunState struct {
	RunID       string
	Sequence    string
	Fingerprint string
	Plan        []StepDescriptor
	Cursor      int
	Results     map[string]StepResult
	Log         []string
	StartedAt   time.Time
}

func NewRunState(runID, sequence string) *RunState {
	return &RunState{
		RunID:       runID,
		Sequence:    sequence,
		Fingerprint: SequenceFingerprint(sequence),
		Results:     make(map[string]StepResult),
		StartedAt:   time.Now().UTC(),
	}
}

// Current returns the descriptor under the cursor, or false when the plan is
// exhausted.
func (s *RunState) Current() (StepDescriptor, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Plan) {
		return StepDescriptor{}, false
	}
	return s.Plan[s.Cursor], true
}

func (s *RunState) Done() bool {
	return s.Cursor >= len(s.Plan)
}

func (s *RunState) Advance() {
	s.Cursor++
}

// Store records the most recent result for a step, superseding any earlier
// attempt.
func (s *RunState) Store(result StepResult) {
	s.Results[result.StepName] = result
}

func (s *RunState) Result(name string) (StepResult, bool) {
	result, ok := s.Results[name]
	return result, ok
}

// Succeeded reports whether the named step has a stored successful result.
func (s *RunState) Succeeded(name string) bool {
	result, ok := s.Results[name]
	return ok && result.Status == StepSucceeded
}

func (s *RunState) Append(format string, args ...any) {
	s.Log = append(s.Log, fmt.Sprintf(format, args...))
}

// SequenceFingerprint derives the short tracking identifier for an input
// sequence. Not a uniqueness guarantee.
func SequenceFingerprint(sequence string) string {
	sum := sha256.Sum256([]byte(sequence))
	return hex.EncodeToString(sum[:])[:8]
}
