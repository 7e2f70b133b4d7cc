package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/foldline-labs/foldline-go/internal/repo"
)

type StepExecutionStore struct {
	db DB
}

const (
	insertStepExecutionQuery = `INSERT INTO step_executions (
		step_execution_id,
		run_id,
		step_name,
		handler,
		attempt,
		status,
		error_kind,
		error_message,
		elapsed_ms,
		recorded_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	ON CONFLICT (run_id, step_name, handler, attempt) DO NOTHING`

	listStepExecutionsQuery = `SELECT step_execution_id, run_id, step_name, handler, attempt, status, error_kind, error_message, elapsed_ms, recorded_at
	 FROM step_executions
	 WHERE run_id = $1
	 ORDER BY recorded_at ASC, step_name ASC, attempt ASC`
)

func NewStepExecutionStore(db DB) *StepExecutionStore {
	if db == nil {
		return nil
	}
	return &StepExecutionStore{db: db}
}

// InsertAttempt appends one attempt to the ledger. The key includes the
// handler so a fallback's attempt 1 never collides with the primary
// handler's attempt 1. Returns false when the attempt was already recorded.
func (s *StepExecutionStore) InsertAttempt(ctx context.Context, record repo.StepExecutionRecord) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("step execution store not initialized")
	}
	runID := strings.TrimSpace(record.RunID)
	stepName := strings.TrimSpace(record.StepName)
	handler := strings.TrimSpace(record.Handler)
	status := strings.TrimSpace(record.Status)

	if runID == "" {
		return false, fmt.Errorf("run id is required")
	}
	if stepName == "" {
		return false, fmt.Errorf("step name is required")
	}
	if handler == "" {
		return false, fmt.Errorf("handler is required")
	}
	if record.Attempt < 1 {
		return false, fmt.Errorf("attempt must be >= 1")
	}
	if status == "" {
		return false, fmt.Errorf("status is required")
	}

	id := strings.TrimSpace(record.ID)
	if id == "" {
		id = uuid.NewString()
	}

	result, err := s.db.ExecContext(
		ctx,
		insertStepExecutionQuery,
		id,
		runID,
		stepName,
		handler,
		record.Attempt,
		status,
		nullIfEmpty(record.ErrorKind),
		nullIfEmpty(record.ErrorMessage),
		record.ElapsedMs,
		normalizeTime(record.RecordedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert step execution: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert step execution: %w", err)
	}
	return affected > 0, nil
}

func (s *StepExecutionStore) ListByRun(ctx context.Context, runID string) ([]repo.StepExecutionRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("step execution store not initialized")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}

	rows, err := s.db.QueryContext(ctx, listStepExecutionsQuery, runID)
	if err != nil {
		return nil, fmt.Errorf("list step executions: %w", err)
	}
	defer rows.Close()

	records := make([]repo.StepExecutionRecord, 0, 8)
	for rows.Next() {
		var record repo.StepExecutionRecord
		var errorKind, errorMessage sql.NullString
		if err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.StepName,
			&record.Handler,
			&record.Attempt,
			&record.Status,
			&errorKind,
			&errorMessage,
			&record.ElapsedMs,
			&record.RecordedAt,
		); err != nil {
			return nil, err
		}
		record.ErrorKind = errorKind.String
		record.ErrorMessage = errorMessage.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
