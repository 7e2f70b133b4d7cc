// Package steps binds the pipeline step handlers to their collaborators and
// assembles the step registry.
package steps

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foldline-labs/foldline-go/internal/domain"
	"github.com/foldline-labs/foldline-go/internal/engine"
	"github.com/foldline-labs/foldline-go/internal/esmfold"
	"github.com/foldline-labs/foldline-go/internal/pdb"
	"github.com/foldline-labs/foldline-go/internal/seqvalidate"
)

// Handler identities dispatched by plans. HandlerSynthetic is the fallback
// target for prediction; it never appears as a primary step.
const (
	HandlerValidate  = "validate_sequence"
	HandlerPredict   = "predict_structure"
	HandlerSynthetic = "predict_structure_synthetic"
	HandlerParse     = "parse_structure"
	HandlerMetrics   = "calculate_metrics"
	HandlerReport    = "generate_report"
)

// ArtifactStore persists the predicted structure for later retrieval.
type ArtifactStore interface {
	PutStructure(ctx context.Context, runID, pdbContent string) (string, error)
}

// Deps carries everything the step handlers need. Artifacts may be nil; the
// report step then skips the upload.
type Deps struct {
	Logger    *slog.Logger
	Atlas     esmfold.Predictor
	Synthetic esmfold.Predictor
	Artifacts ArtifactStore
}

// ValidationPayload is produced by validate_sequence.
type ValidationPayload struct {
	Length int `json:"length"`
}

// PredictionPayload is produced by predict_structure and its fallback.
type PredictionPayload struct {
	PDB        string    `json:"-"`
	Method     string    `json:"method"`
	Confidence float64   `json:"confidence"`
	PLDDT      []float64 `json:"-"`
}

// ParsePayload is produced by parse_structure.
type ParsePayload struct {
	Atoms    int    `json:"atoms"`
	Residues int    `json:"residues"`
	Chains   int    `json:"chains"`
	PDB      string `json:"-"`
}

// MetricsPayload is produced by calculate_metrics.
type MetricsPayload struct {
	Values map[string]float64 `json:"values"`
}

// MetricValues exposes the metrics for the run report.
func (p MetricsPayload) MetricValues() map[string]float64 { return p.Values }

// ReportPayload is produced by generate_report.
type ReportPayload struct {
	ArtifactKey string `json:"artifact_key,omitempty"`
}

// StructureKey reports where the structure artifact was stored; empty when
// the upload was skipped or failed.
func (p ReportPayload) StructureKey() string { return p.ArtifactKey }

// NewRegistry assembles the full step registry. Every identity a plan can
// dispatch to is registered here.
func NewRegistry(deps Deps) (*engine.Registry, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Atlas == nil {
		return nil, fmt.Errorf("atlas predictor is required")
	}
	if deps.Synthetic == nil {
		return nil, fmt.Errorf("synthetic predictor is required")
	}

	registry := engine.NewRegistry()
	handlers := map[string]engine.StepFunc{
		HandlerValidate:  validateSequence,
		HandlerPredict:   predict(deps.Atlas),
		HandlerSynthetic: predict(deps.Synthetic),
		HandlerParse:     parseStructure,
		HandlerMetrics:   calculateMetrics,
		HandlerReport:    generateReport(deps),
	}
	for name, fn := range handlers {
		if err := registry.Register(name, fn); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func validateSequence(ctx context.Context, state *domain.RunState) (any, error) {
	if err := seqvalidate.Check(state.Sequence); err != nil {
		return nil, domain.WrapError(domain.KindValidation, "sequence", err)
	}
	return ValidationPayload{Length: len(state.Sequence)}, nil
}

func predict(predictor esmfold.Predictor) engine.StepFunc {
	return func(ctx context.Context, state *domain.RunState) (any, error) {
		prediction, err := predictor.Fold(ctx, state.Sequence)
		if err != nil {
			return nil, fmt.Errorf("predict structure: %w", err)
		}
		return PredictionPayload{
			PDB:        prediction.PDB,
			Method:     prediction.Method,
			Confidence: prediction.Confidence,
			PLDDT:      prediction.PLDDT,
		}, nil
	}
}

func parseStructure(ctx context.Context, state *domain.RunState) (any, error) {
	prediction, err := predictionOf(state)
	if err != nil {
		return nil, err
	}
	summary, err := pdb.Parse(prediction.PDB)
	if err != nil {
		return nil, fmt.Errorf("parse structure: %w", err)
	}
	return ParsePayload{
		Atoms:    summary.AtomCount,
		Residues: summary.ResidueCount,
		Chains:   summary.ChainCount,
		PDB:      prediction.PDB,
	}, nil
}

func calculateMetrics(ctx context.Context, state *domain.RunState) (any, error) {
	prediction, err := predictionOf(state)
	if err != nil {
		return nil, err
	}
	parsed, err := parseOf(state)
	if err != nil {
		return nil, err
	}

	metrics := map[string]float64{
		"total_atoms":      float64(parsed.Atoms),
		"total_residues":   float64(parsed.Residues),
		"chain_count":      float64(parsed.Chains),
		"sequence_length":  float64(len(state.Sequence)),
		"confidence_score": prediction.Confidence,
		"average_plddt":    0,
	}
	if len(prediction.PLDDT) > 0 {
		var sum float64
		for _, v := range prediction.PLDDT {
			sum += v
		}
		metrics["average_plddt"] = sum / float64(len(prediction.PLDDT))
	}
	return MetricsPayload{Values: metrics}, nil
}

func generateReport(deps Deps) engine.StepFunc {
	return func(ctx context.Context, state *domain.RunState) (any, error) {
		result, ok := state.Result(HandlerMetrics)
		if !ok || result.Status != domain.StepSucceeded {
			return nil, fmt.Errorf("metrics step did not complete successfully")
		}

		payload := ReportPayload{}
		if deps.Artifacts != nil {
			prediction, err := predictionOf(state)
			if err != nil {
				return nil, err
			}
			key, err := deps.Artifacts.PutStructure(ctx, state.RunID, prediction.PDB)
			if err != nil {
				// The report is still valid without the stored artifact.
				deps.Logger.Warn("structure upload failed", "run_id", state.RunID, "error", err)
			} else {
				payload.ArtifactKey = key
			}
		}
		return payload, nil
	}
}

func predictionOf(state *domain.RunState) (PredictionPayload, error) {
	result, ok := state.Result(HandlerPredict)
	if !ok || result.Status != domain.StepSucceeded {
		return PredictionPayload{}, fmt.Errorf("prediction step did not complete successfully")
	}
	payload, ok := result.Payload.(PredictionPayload)
	if !ok {
		return PredictionPayload{}, fmt.Errorf("prediction step produced no structure payload")
	}
	return payload, nil
}

func parseOf(state *domain.RunState) (ParsePayload, error) {
	result, ok := state.Result(HandlerParse)
	if !ok || result.Status != domain.StepSucceeded {
		return ParsePayload{}, fmt.Errorf("parsing step did not complete successfully")
	}
	payload, ok := result.Payload.(ParsePayload)
	if !ok {
		return ParsePayload{}, fmt.Errorf("parsing step produced no structure payload")
	}
	return payload, nil
}
