// Package esmfold predicts protein structures. The primary backend is the
// public ESM Atlas fold API; a deterministic synthetic generator serves as
// the offline fallback.
package esmfold

import "context"

// Predictor folds an amino acid sequence into a structure.
type Predictor interface {
	Fold(ctx context.Context, sequence string) (Prediction, error)
}

// Prediction is the outcome of one structure prediction.
type Prediction struct {
	PDB        string
	Method     string
	Confidence float64
	PLDDT      []float64
}

// Method identifiers recorded on predictions and in reports.
const (
	MethodAtlas     = "esm_atlas_api"
	MethodSynthetic = "synthetic_fallback"
)
