package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/foldline-labs/foldline-go/internal/repo"
)

type PredictionRunStore struct {
	db DB
}

const (
	insertRunQuery = `INSERT INTO prediction_runs (
		run_id,
		fingerprint,
		sequence_length,
		status,
		partial,
		report,
		artifact_key,
		started_at,
		ended_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	selectRunColumns = `run_id, fingerprint, sequence_length, status, partial, report, artifact_key, started_at, ended_at`

	selectRunQuery = `SELECT ` + selectRunColumns + `
	 FROM prediction_runs
	 WHERE run_id = $1`

	listRunsQuery = `SELECT ` + selectRunColumns + `
	 FROM prediction_runs
	 WHERE ($1 = '' OR status = $1)
	 ORDER BY started_at DESC
	 LIMIT $2`
)

func NewPredictionRunStore(db DB) *PredictionRunStore {
	if db == nil {
		return nil
	}
	return &PredictionRunStore{db: db}
}

func (s *PredictionRunStore) Insert(ctx context.Context, record repo.PredictionRunRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("prediction run store not initialized")
	}
	runID := strings.TrimSpace(record.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(record.Fingerprint) == "" {
		return fmt.Errorf("fingerprint is required")
	}
	if strings.TrimSpace(record.Status) == "" {
		return fmt.Errorf("status is required")
	}
	if len(record.Report) == 0 {
		return fmt.Errorf("report is required")
	}

	_, err := s.db.ExecContext(
		ctx,
		insertRunQuery,
		runID,
		record.Fingerprint,
		record.SequenceLength,
		record.Status,
		record.Partial,
		record.Report,
		nullIfEmpty(record.ArtifactKey),
		normalizeTime(record.StartedAt),
		normalizeTime(record.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("insert prediction run: %w", err)
	}
	return nil
}

func (s *PredictionRunStore) Get(ctx context.Context, runID string) (repo.PredictionRunRecord, error) {
	if s == nil || s.db == nil {
		return repo.PredictionRunRecord{}, fmt.Errorf("prediction run store not initialized")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return repo.PredictionRunRecord{}, fmt.Errorf("run id is required")
	}

	row := s.db.QueryRowContext(ctx, selectRunQuery, runID)
	record, err := scanRun(row)
	if err != nil {
		return repo.PredictionRunRecord{}, handleNotFound(err)
	}
	return record, nil
}

func (s *PredictionRunStore) List(ctx context.Context, filter repo.RunFilter) ([]repo.PredictionRunRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("prediction run store not initialized")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, listRunsQuery, strings.TrimSpace(filter.Status), limit)
	if err != nil {
		return nil, fmt.Errorf("list prediction runs: %w", err)
	}
	defer rows.Close()

	records := make([]repo.PredictionRunRecord, 0, limit)
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (repo.PredictionRunRecord, error) {
	var record repo.PredictionRunRecord
	var artifactKey sql.NullString
	err := row.Scan(
		&record.RunID,
		&record.Fingerprint,
		&record.SequenceLength,
		&record.Status,
		&record.Partial,
		&record.Report,
		&artifactKey,
		&record.StartedAt,
		&record.EndedAt,
	)
	if err != nil {
		return repo.PredictionRunRecord{}, err
	}
	record.ArtifactKey = artifactKey.String
	return record, nil
}
