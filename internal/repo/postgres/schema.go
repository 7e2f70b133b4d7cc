package postgres

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS prediction_runs (
		run_id          TEXT PRIMARY KEY,
		fingerprint     TEXT NOT NULL,
		sequence_length INTEGER NOT NULL,
		status          TEXT NOT NULL,
		partial         BOOLEAN NOT NULL DEFAULT FALSE,
		report          JSONB NOT NULL,
		artifact_key    TEXT,
		started_at      TIMESTAMPTZ NOT NULL,
		ended_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS prediction_runs_status_idx ON prediction_runs (status, started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS step_executions (
		step_execution_id TEXT PRIMARY KEY,
		run_id            TEXT NOT NULL,
		step_name         TEXT NOT NULL,
		handler           TEXT NOT NULL,
		attempt           INTEGER NOT NULL,
		status            TEXT NOT NULL,
		error_kind        TEXT,
		error_message     TEXT,
		elapsed_ms        DOUBLE PRECISION NOT NULL DEFAULT 0,
		recorded_at       TIMESTAMPTZ NOT NULL,
		UNIQUE (run_id, step_name, handler, attempt)
	)`,
	`CREATE INDEX IF NOT EXISTS step_executions_run_idx ON step_executions (run_id, recorded_at ASC)`,
}

// EnsureSchema creates the tables if they do not exist yet. Idempotent;
// called once at service startup.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
