package steps

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/foldline-labs/foldline-go/internal/domain"
	"github.com/foldline-labs/foldline-go/internal/engine"
	"github.com/foldline-labs/foldline-go/internal/esmfold"
)

func testDeps() Deps {
	return Deps{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Atlas:     esmfold.Synthetic{},
		Synthetic: esmfold.Synthetic{},
	}
}

func resolve(t *testing.T, registry *engine.Registry, name string) engine.StepFunc {
	t.Helper()
	fn, ok := registry.Resolve(name)
	if !ok {
		t.Fatalf("handler %s not registered", name)
	}
	return fn
}

func TestNewRegistryRegistersAllHandlers(t *testing.T) {
	registry, err := NewRegistry(testDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{HandlerValidate, HandlerPredict, HandlerSynthetic, HandlerParse, HandlerMetrics, HandlerReport} {
		if _, ok := registry.Resolve(name); !ok {
			t.Fatalf("handler %s missing", name)
		}
	}
}

func TestNewRegistryRequiresDeps(t *testing.T) {
	deps := testDeps()
	deps.Atlas = nil
	if _, err := NewRegistry(deps); err == nil {
		t.Fatalf("expected error for missing predictor")
	}
}

func TestValidateSequenceHandler(t *testing.T) {
	registry, err := NewRegistry(testDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn := resolve(t, registry, HandlerValidate)

	state := domain.NewRunState("run-1", "MKTAYIAK")
	payload, err := fn(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := payload.(ValidationPayload); got.Length != 8 {
		t.Fatalf("expected length 8, got %d", got.Length)
	}

	state = domain.NewRunState("run-2", "MKT123")
	if _, err := fn(context.Background(), state); err == nil {
		t.Fatalf("expected validation error")
	} else if kind := domain.KindOf(err); kind != domain.KindValidation {
		t.Fatalf("expected validation kind, got %s", kind)
	}
}

func runPipeline(t *testing.T, registry *engine.Registry, state *domain.RunState) {
	t.Helper()
	order := []string{HandlerValidate, HandlerPredict, HandlerParse, HandlerMetrics, HandlerReport}
	for _, name := range order {
		fn := resolve(t, registry, name)
		payload, err := fn(context.Background(), state)
		if err != nil {
			t.Fatalf("step %s failed: %v", name, err)
		}
		state.Store(domain.StepResult{
			StepName: name,
			Handler:  name,
			Status:   domain.StepSucceeded,
			Payload:  payload,
			Attempt:  1,
		})
	}
}

func TestPipelineHandlersChainThroughState(t *testing.T) {
	registry, err := NewRegistry(testDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sequence := "MKTAYIAK"
	state := domain.NewRunState("run-1", sequence)
	runPipeline(t, registry, state)

	parse, ok := state.Result(HandlerParse)
	if !ok {
		t.Fatalf("expected parse result")
	}
	parsed := parse.Payload.(ParsePayload)
	if parsed.Residues != len(sequence) {
		t.Fatalf("expected %d residues, got %d", len(sequence), parsed.Residues)
	}

	metricsResult, _ := state.Result(HandlerMetrics)
	metrics := metricsResult.Payload.(MetricsPayload).Values
	if metrics["sequence_length"] != float64(len(sequence)) {
		t.Fatalf("expected sequence_length metric, got %v", metrics)
	}
	if metrics["total_residues"] != float64(len(sequence)) {
		t.Fatalf("expected total_residues metric, got %v", metrics)
	}
	if metrics["average_plddt"] != 0.75 {
		t.Fatalf("expected synthetic plddt average, got %v", metrics["average_plddt"])
	}
}

func TestParseStructureRequiresPrediction(t *testing.T) {
	registry, err := NewRegistry(testDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn := resolve(t, registry, HandlerParse)

	state := domain.NewRunState("run-1", "MKT")
	if _, err := fn(context.Background(), state); err == nil {
		t.Fatalf("expected error without prediction result")
	}
}

type captureArtifacts struct {
	key string
	err error
}

func (c *captureArtifacts) PutStructure(ctx context.Context, runID, pdbContent string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.key = fmt.Sprintf("runs/%s/structure.pdb", runID)
	return c.key, nil
}

func TestGenerateReportStoresArtifact(t *testing.T) {
	deps := testDeps()
	store := &captureArtifacts{}
	deps.Artifacts = store
	registry, err := NewRegistry(deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := domain.NewRunState("run-1", "MKTAYIAK")
	runPipeline(t, registry, state)

	report, _ := state.Result(HandlerReport)
	payload := report.Payload.(ReportPayload)
	if payload.ArtifactKey != "runs/run-1/structure.pdb" {
		t.Fatalf("expected artifact key, got %q", payload.ArtifactKey)
	}
	if store.key == "" {
		t.Fatalf("expected upload to be attempted")
	}
}

func TestGenerateReportToleratesUploadFailure(t *testing.T) {
	deps := testDeps()
	deps.Artifacts = &captureArtifacts{err: fmt.Errorf("object store down")}
	registry, err := NewRegistry(deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := domain.NewRunState("run-1", "MKTAYIAK")
	runPipeline(t, registry, state)

	report, _ := state.Result(HandlerReport)
	payload := report.Payload.(ReportPayload)
	if payload.ArtifactKey != "" {
		t.Fatalf("expected empty artifact key on failed upload, got %q", payload.ArtifactKey)
	}
}
