// Package predictions is the application service behind the prediction API:
// it runs the pipeline and persists the outcome.
package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/foldline-labs/foldline-go/internal/domain"
	"github.com/foldline-labs/foldline-go/internal/engine"
	"github.com/foldline-labs/foldline-go/internal/repo"
	"github.com/foldline-labs/foldline-go/internal/storage/artifacts"
)

type Service struct {
	logger    *slog.Logger
	engine    *engine.Engine
	runs      repo.PredictionRunRepository
	ledger    repo.StepExecutionRepository
	artifacts *artifacts.Store
}

func NewService(
	logger *slog.Logger,
	eng *engine.Engine,
	runs repo.PredictionRunRepository,
	ledger repo.StepExecutionRepository,
	store *artifacts.Store,
) (*Service, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}
	return &Service{
		logger:    logger,
		engine:    eng,
		runs:      runs,
		ledger:    ledger,
		artifacts: store,
	}, nil
}

// Predict runs the full pipeline for one sequence and stores the resulting
// report. Persistence failures do not invalidate the computed report.
func (s *Service) Predict(ctx context.Context, sequence string) (domain.Report, error) {
	report, err := s.engine.Run(ctx, sequence)
	if err != nil {
		return domain.Report{}, err
	}

	if s.runs != nil {
		encoded, err := json.Marshal(report)
		if err != nil {
			return domain.Report{}, fmt.Errorf("encode report: %w", err)
		}
		record := repo.PredictionRunRecord{
			RunID:          report.RunID,
			Fingerprint:    report.Fingerprint,
			SequenceLength: report.SequenceLength,
			Status:         string(report.Status),
			Partial:        report.Partial,
			Report:         encoded,
			ArtifactKey:    report.ArtifactKey,
			StartedAt:      report.StartedAt,
			EndedAt:        report.EndedAt,
		}
		if err := s.runs.Insert(ctx, record); err != nil {
			s.logger.Error("persist prediction run failed", "run_id", report.RunID, "error", err)
		}
	}
	return report, nil
}

// Get returns the stored report for a run.
func (s *Service) Get(ctx context.Context, runID string) (repo.PredictionRunRecord, error) {
	if s.runs == nil {
		return repo.PredictionRunRecord{}, repo.ErrNotFound
	}
	return s.runs.Get(ctx, runID)
}

// List returns stored runs, newest first.
func (s *Service) List(ctx context.Context, filter repo.RunFilter) ([]repo.PredictionRunRecord, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.List(ctx, filter)
}

// StepAttempts returns the full attempt ledger for a run.
func (s *Service) StepAttempts(ctx context.Context, runID string) ([]repo.StepExecutionRecord, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.ListByRun(ctx, runID)
}

// Structure streams the stored PDB for a run.
func (s *Service) Structure(ctx context.Context, runID string) (io.ReadCloser, error) {
	if s.artifacts == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	return s.artifacts.GetStructure(ctx, runID)
}

// StructureURL returns a short-lived presigned download link.
func (s *Service) StructureURL(ctx context.Context, runID string, ttl time.Duration) (string, error) {
	if s.artifacts == nil {
		return "", fmt.Errorf("artifact store not configured")
	}
	return s.artifacts.PresignGetStructure(ctx, runID, ttl)
}
