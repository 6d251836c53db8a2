package repositories

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/platform/obs"
	"cvrp-route-service/internal/ports"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Postgres-backed implementation of the RunRepository port.
type PostgresRunRepository struct{ DB *sql.DB }

func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{DB: db}
}

const selectRunColumns = `
	SELECT
		id,
		instance_name,
		algorithm,
		total_cost,
		vehicles,
		routes,
		stop_reason,
		iterations,
		duration_ms,
		created_at
	FROM solve_runs
`

// Store a finished run.
func (p *PostgresRunRepository) SaveRun(ctx context.Context, run *ports.SolveRun) (err error) {
	defer obs.Time(ctx, "runs.SaveRun")(&err)

	if p.DB == nil {
		return errors.New("postgres run repository: DB is nil")
	}

	routes, err := json.Marshal(run.Routes)
	if err != nil {
		return fmt.Errorf("save run: encode routes: %w", err)
	}

	query := `
	INSERT INTO solve_runs (
		id,
		instance_name,
		algorithm,
		total_cost,
		vehicles,
		routes,
		stop_reason,
		iterations,
		duration_ms,
		created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = p.DB.ExecContext(ctx, query,
		run.ID,
		run.InstanceName,
		run.Algorithm,
		run.TotalCost,
		run.Vehicles,
		routes,
		run.StopReason,
		run.Iterations,
		run.Duration.Milliseconds(),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save run: insert id=%s: %w", run.ID, err)
	}
	return nil
}

// Return one run by id.
func (p *PostgresRunRepository) GetRun(ctx context.Context, id string) (_ *ports.SolveRun, err error) {
	defer obs.Time(ctx, "runs.GetRun")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres run repository: DB is nil")
	}

	row := p.DB.QueryRowContext(ctx, selectRunColumns+" WHERE id = $1;", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// Return the most recent runs, newest first.
func (p *PostgresRunRepository) ListRuns(ctx context.Context, limit int) (_ []*ports.SolveRun, err error) {
	defer obs.Time(ctx, "runs.ListRuns")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres run repository: DB is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.DB.QueryContext(ctx, selectRunColumns+" ORDER BY created_at DESC LIMIT $1;", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: query solve_runs table: %w", err)
	}
	defer rows.Close()

	runs := make([]*ports.SolveRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: scan row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: row iteration: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*ports.SolveRun, error) {
	var (
		run        ports.SolveRun
		routes     []byte
		durationMs int64
	)
	err := s.Scan(
		&run.ID,
		&run.InstanceName,
		&run.Algorithm,
		&run.TotalCost,
		&run.Vehicles,
		&routes,
		&run.StopReason,
		&run.Iterations,
		&durationMs,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(routes, &run.Routes); err != nil {
		return nil, fmt.Errorf("decode routes: %w", err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}
