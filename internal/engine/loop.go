package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/foldline-labs/foldline-go/internal/domain"
	"github.com/foldline-labs/foldline-go/internal/engine/plan"
	"github.com/foldline-labs/foldline-go/internal/orchpolicy"
)

// AttemptSink receives every step attempt as it finishes. Sink failures are
// logged, never fatal to the run.
type AttemptSink interface {
	RecordAttempt(ctx context.Context, state *domain.RunState, result domain.StepResult) error
}

// NormalizeFunc canonicalizes the raw input and rejects malformed sequences
// before a run id is issued.
type NormalizeFunc func(sequence string) (string, error)

// PlanFunc builds the ordered plan for one run.
type PlanFunc func(chars plan.Characteristics) ([]domain.StepDescriptor, error)

type Config struct {
	Logger    *slog.Logger
	Registry  *Registry
	Policy    orchpolicy.Policy
	Plan      PlanFunc
	Normalize NormalizeFunc
	Sink      AttemptSink
}

// Engine drives the plan/act/observe loop for independent runs. Safe for
// concurrent use; each run owns its own state.
type Engine struct {
	logger    *slog.Logger
	registry  *Registry
	executor  *Executor
	policy    *DecisionPolicy
	planFn    PlanFunc
	normalize NormalizeFunc
	sink      AttemptSink
	newRunID  func() string
	sleep     func(ctx context.Context, d time.Duration)
}

func New(cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Plan == nil {
		return nil, errors.New("plan builder is required")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, domain.WrapError(domain.KindConfiguration, "orchestration policy", err)
	}
	return &Engine{
		logger:    cfg.Logger,
		registry:  cfg.Registry,
		executor:  NewExecutor(cfg.Registry),
		policy:    NewDecisionPolicy(cfg.Policy),
		planFn:    cfg.Plan,
		normalize: cfg.Normalize,
		sink:      cfg.Sink,
		newRunID:  uuid.NewString,
		sleep:     sleepWithContext,
	}, nil
}

// Run executes the full pipeline for one sequence and returns its report.
// Only configuration and validation errors return a non-nil error; once a
// run id is issued every failure is captured inside the (possibly partial)
// report.
func (e *Engine) Run(ctx context.Context, sequence string) (domain.Report, error) {
	if e.normalize != nil {
		normalized, err := e.normalize(sequence)
		if err != nil {
			return domain.Report{}, domain.WrapError(domain.KindValidation, "sequence", err)
		}
		sequence = normalized
	}

	steps, err := e.planFn(plan.Characteristics{SequenceLength: len(sequence)})
	if err != nil {
		return domain.Report{}, err
	}
	if err := plan.Validate(steps); err != nil {
		return domain.Report{}, err
	}
	if err := e.registry.Validate(plan.Handlers(steps)); err != nil {
		return domain.Report{}, err
	}

	state := domain.NewRunState(e.newRunID(), sequence)
	state.Plan = steps

	logger := e.logger.With("run_id", state.RunID, "fingerprint", state.Fingerprint)
	logger.Info("run planned", "steps", len(steps), "sequence_length", len(sequence))
	state.Append("planned %d steps for %d residues", len(steps), len(sequence))

	status := e.drive(ctx, logger, state)

	report := assembleReport(state, status)
	logger.Info("run finished", "status", string(status), "elapsed_ms", report.TotalElapsedMs)
	return report, nil
}

// drive is the act/observe loop proper. It returns the terminal run status.
func (e *Engine) drive(ctx context.Context, logger *slog.Logger, state *domain.RunState) domain.RunStatus {
	attempt := 1
	for !state.Done() {
		if ctx.Err() != nil {
			state.Append("run cancelled before step could start")
			return domain.RunAborted
		}

		desc, _ := state.Current()
		logger.Info("step started", "step", desc.Name, "handler", desc.Handler, "attempt", attempt)

		result := e.executor.Execute(ctx, desc, state, attempt)
		state.Store(result)
		e.record(ctx, logger, state, result)

		decision := e.policy.Decide(desc, result, state)
		state.Append("%s", decision.Reason)
		logger.Info("step observed",
			"step", desc.Name,
			"status", string(result.Status),
			"action", string(decision.Action),
			"reason", decision.Reason,
			"elapsed_ms", result.Elapsed.Milliseconds(),
		)

		switch decision.Action {
		case domain.ActionContinue:
			state.Advance()
			attempt = 1

		case domain.ActionRetry:
			retrying := result
			retrying.Status = domain.StepRetrying
			state.Store(retrying)
			e.sleep(ctx, decision.RetryDelay)
			if ctx.Err() != nil {
				// Restore the failed result so the report does not read
				// retrying for a run that will never retry.
				state.Store(result)
				state.Append("run cancelled during retry backoff for %s", desc.Name)
				return domain.RunAborted
			}
			attempt++

		case domain.ActionFallback:
			// Same plan position, alternate executable, fresh retry budget.
			// The step keeps its name so downstream dependency lookups hold.
			swapped := desc
			swapped.Handler = decision.NextStep
			swapped.Fallback = ""
			state.Plan[state.Cursor] = swapped
			attempt = 1
			logger.Warn("step falling back", "step", desc.Name, "handler", decision.NextStep)

		case domain.ActionAbort:
			// A step that burned a retry budget aborts as retry_exhausted;
			// the ledger keeps the per-attempt kinds.
			if desc.MaxRetries > 0 && result.Status == domain.StepFailed && result.Kind != domain.KindAborted {
				exhausted := result
				exhausted.Kind = domain.KindRetryExhausted
				state.Store(exhausted)
			}
			return domain.RunAborted

		case domain.ActionComplete:
			return domain.RunCompleted
		}
	}
	return domain.RunCompleted
}

func (e *Engine) record(ctx context.Context, logger *slog.Logger, state *domain.RunState, result domain.StepResult) {
	if e.sink == nil {
		return
	}
	if err := e.sink.RecordAttempt(ctx, state, result); err != nil {
		logger.Warn("attempt sink failed", "step", result.StepName, "attempt", result.Attempt, "error", err)
	}
}

func assembleReport(state *domain.RunState, status domain.RunStatus) domain.Report {
	endedAt := time.Now().UTC()
	report := domain.Report{
		RunID:          state.RunID,
		Fingerprint:    state.Fingerprint,
		SequenceLength: len(state.Sequence),
		Status:         status,
		Partial:        status == domain.RunAborted,
		Steps:          make([]domain.StepReport, 0, len(state.Plan)),
		StartedAt:      state.StartedAt,
		EndedAt:        endedAt,
		TotalElapsedMs: float64(endedAt.Sub(state.StartedAt).Milliseconds()),
		Log:            state.Log,
	}

	for _, desc := range state.Plan {
		result, ok := state.Result(desc.Name)
		if !ok {
			continue
		}
		report.Steps = append(report.Steps, domain.StepReport{
			Name:      result.StepName,
			Status:    string(result.Status),
			Handler:   result.Handler,
			Attempts:  result.Attempt,
			ElapsedMs: float64(result.Elapsed.Microseconds()) / 1000,
			ErrorKind: string(result.Kind),
			Error:     result.Err,
		})
		if result.Status != domain.StepSucceeded {
			continue
		}
		// Payloads announce what they contribute to the report; the loop
		// stays ignorant of step names.
		if metrics, ok := result.Payload.(interface{ MetricValues() map[string]float64 }); ok {
			report.Metrics = metrics.MetricValues()
		}
		if keyed, ok := result.Payload.(interface{ StructureKey() string }); ok {
			report.ArtifactKey = keyed.StructureKey()
		}
	}
	return report
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
