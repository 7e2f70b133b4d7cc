package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foldline-labs/foldline-go/internal/domain"
)

// Executor runs a single step attempt inside its execution envelope: handler
// lookup, deadline, panic containment, and wall-clock timing. It never
// mutates the run state and never lets a collaborator failure escape as
// anything other than a failed StepResult.
type Executor struct {
	registry *Registry
}

func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

type stepOutcome struct {
	payload any
	err     error
}

func (e *Executor) Execute(ctx context.Context, desc domain.StepDescriptor, state *domain.RunState, attempt int) domain.StepResult {
	result := domain.StepResult{
		StepName: desc.Name,
		Handler:  desc.Handler,
		Attempt:  attempt,
	}

	fn, ok := e.registry.Resolve(desc.Handler)
	if !ok {
		result.Status = domain.StepFailed
		result.Kind = domain.KindConfiguration
		result.Err = fmt.Sprintf("step handler %q not registered", desc.Handler)
		return result
	}

	stepCtx, cancel := context.WithTimeout(ctx, desc.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan stepOutcome, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- stepOutcome{err: fmt.Errorf("step panicked: %v", v)}
			}
		}()
		payload, err := fn(stepCtx, state)
		done <- stepOutcome{payload: payload, err: err}
	}()

	select {
	case out := <-done:
		result.Elapsed = time.Since(start)
		if out.err != nil {
			result.Status = domain.StepFailed
			result.Kind = classify(stepCtx, out.err)
			result.Err = out.err.Error()
			return result
		}
		result.Status = domain.StepSucceeded
		result.Payload = out.payload
		return result
	case <-stepCtx.Done():
		// The deadline (or the surrounding request) fired first. cancel has
		// already signalled the collaborator; the worker goroutine drains
		// into the buffered channel and exits on its own.
		result.Elapsed = time.Since(start)
		result.Status = domain.StepFailed
		if ctx.Err() != nil {
			result.Kind = domain.KindAborted
			result.Err = "run cancelled while step was executing"
			return result
		}
		result.Kind = domain.KindStepTimeout
		result.Err = fmt.Sprintf("step exceeded its %s deadline", desc.Timeout)
		return result
	}
}

func classify(stepCtx context.Context, err error) domain.Kind {
	if errors.Is(err, context.DeadlineExceeded) && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		return domain.KindStepTimeout
	}
	if errors.Is(err, context.Canceled) {
		return domain.KindAborted
	}
	return domain.KindOf(err)
}
