package domain

import "time"

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepRetrying  StepStatus = "retrying"
)

type Action string

const (
	ActionContinue Action = "continue"
	ActionRetry    Action = "retry"
	ActionFallback Action = "fallback"
	ActionAbort    Action = "abort"
	ActionComplete Action = "complete"
)

// StepDescriptor is one planned unit of pipeline work. Immutable once the
// plan is built.
type StepDescriptor struct {
	Name        string
	Description string
	Handler     string
	DependsOn   []string
	Timeout     time.Duration
	MaxRetries  int
	Fallback    string
	Final       bool
}

// StepResult is the outcome of a single execution attempt. A retry produces
// a new result that supersedes the previous one.
type StepResult struct {
	StepName string
	Status   StepStatus
	Handler  string
	Payload  any
	Kind     Kind
	Err      string
	Elapsed  time.Duration
	Attempt  int
}

// Decision is the policy verdict over a step result.
type Decision struct {
	Action     Action
	Reason     string
	NextStep   string
	RetryDelay time.Duration
}
