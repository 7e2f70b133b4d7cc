package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSequenceFingerprintIsStableAndShort(t *testing.T) {
	first := SequenceFingerprint("MKTAYIAK")
	second := SequenceFingerprint("MKTAYIAK")
	if first != second {
		t.Fatalf("fingerprint must be deterministic")
	}
	if len(first) != 8 {
		t.Fatalf("expected 8 hex chars, got %q", first)
	}
	if first == SequenceFingerprint("MKTAYIAL") {
		t.Fatalf("different sequences should not collide on this input")
	}
}

func TestRunStateCursor(t *testing.T) {
	state := NewRunState("run-1", "MKT")
	state.Plan = []StepDescriptor{
		{Name: "validate_sequence", Handler: "validate_sequence", Timeout: time.Second},
		{Name: "predict_structure", Handler: "predict_structure", Timeout: time.Second},
	}

	desc, ok := state.Current()
	if !ok || desc.Name != "validate_sequence" {
		t.Fatalf("expected first step, got %+v ok=%v", desc, ok)
	}
	state.Advance()
	desc, ok = state.Current()
	if !ok || desc.Name != "predict_structure" {
		t.Fatalf("expected second step, got %+v ok=%v", desc, ok)
	}
	state.Advance()
	if _, ok := state.Current(); ok {
		t.Fatalf("expected exhausted plan")
	}
	if !state.Done() {
		t.Fatalf("expected done after final advance")
	}
}

func TestStoreSupersedesEarlierAttempt(t *testing.T) {
	state := NewRunState("run-1", "MKT")
	state.Store(StepResult{StepName: "predict_structure", Status: StepFailed, Attempt: 1})
	state.Store(StepResult{StepName: "predict_structure", Status: StepSucceeded, Attempt: 2})

	result, ok := state.Result("predict_structure")
	if !ok {
		t.Fatalf("expected stored result")
	}
	if result.Status != StepSucceeded || result.Attempt != 2 {
		t.Fatalf("expected latest attempt to win, got %+v", result)
	}
	if !state.Succeeded("predict_structure") {
		t.Fatalf("expected Succeeded to reflect latest result")
	}
}

func TestKindOfUnwrapsNestedErrors(t *testing.T) {
	inner := NewError(KindValidation, "bad residues")
	wrapped := fmt.Errorf("step failed: %w", inner)

	if kind := KindOf(wrapped); kind != KindValidation {
		t.Fatalf("expected validation kind through wrapping, got %s", kind)
	}
	if kind := KindOf(errors.New("plain")); kind != KindStepExecution {
		t.Fatalf("expected step_execution_error default, got %s", kind)
	}

	var domainErr *Error
	if !errors.As(wrapped, &domainErr) {
		t.Fatalf("expected errors.As to find domain error")
	}
	if domainErr.Kind != KindValidation {
		t.Fatalf("unexpected kind %s", domainErr.Kind)
	}
}
