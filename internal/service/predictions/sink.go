package predictions

import (
	"context"
	"time"

	"github.com/foldline-labs/foldline-go/internal/domain"
	"github.com/foldline-labs/foldline-go/internal/repo"
)

// LedgerSink feeds every step attempt into the step execution ledger.
type LedgerSink struct {
	ledger repo.StepExecutionRepository
}

func NewLedgerSink(ledger repo.StepExecutionRepository) *LedgerSink {
	if ledger == nil {
		return nil
	}
	return &LedgerSink{ledger: ledger}
}

func (s *LedgerSink) RecordAttempt(ctx context.Context, state *domain.RunState, result domain.StepResult) error {
	if s == nil || s.ledger == nil {
		return nil
	}
	_, err := s.ledger.InsertAttempt(ctx, repo.StepExecutionRecord{
		RunID:        state.RunID,
		StepName:     result.StepName,
		Handler:      result.Handler,
		Attempt:      result.Attempt,
		Status:       string(result.Status),
		ErrorKind:    string(result.Kind),
		ErrorMessage: result.Err,
		ElapsedMs:    float64(result.Elapsed.Microseconds()) / 1000,
		RecordedAt:   time.Now().UTC(),
	})
	return err
}
