package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/foldline-labs/foldline-go/internal/domain"
)

func noop(ctx context.Context, state *domain.RunState) (any, error) {
	return nil, nil
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register("validate_sequence", noop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.Register("validate_sequence", noop); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestRegisterRejectsEmptyNameAndNilFunc(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register("  ", noop); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := registry.Register("predict_structure", nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

func TestValidateReportsMissingHandlersSorted(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register("validate_sequence", noop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := registry.Validate([]string{"validate_sequence", "predict_structure", "calculate_metrics"})
	if err == nil {
		t.Fatalf("expected missing handler error")
	}
	if kind := domain.KindOf(err); kind != domain.KindConfiguration {
		t.Fatalf("expected configuration kind, got %s", kind)
	}
	msg := err.Error()
	if !strings.Contains(msg, "calculate_metrics, predict_structure") {
		t.Fatalf("expected sorted missing handlers in message, got %q", msg)
	}
}
