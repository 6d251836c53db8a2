package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema for stored solve runs.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRunsQuery := `
	CREATE TABLE IF NOT EXISTS solve_runs (
		id UUID PRIMARY KEY,
		instance_name TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		total_cost DOUBLE PRECISION NOT NULL,
		vehicles INTEGER NOT NULL,
		routes JSONB NOT NULL,
		stop_reason TEXT NOT NULL DEFAULT '',
		iterations INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_solve_runs_created_at
	ON solve_runs(created_at DESC);
	`

	createInstanceIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_solve_runs_instance_name
	ON solve_runs(instance_name);
	`

	statements := []string{
		createRunsQuery,
		createIndexQuery,
		createInstanceIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
