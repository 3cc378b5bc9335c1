package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"crowd-sim/internal/domain"
)

// RunRepository define el contrato de persistencia para corridas de
// simulación. El resultado completo se guarda como JSONB aparte del registro
// de la corrida.
type RunRepository interface {
	Create(ctx context.Context, run domain.SimulationRun) error
	GetByID(ctx context.Context, id string) (domain.SimulationRun, error)
	ListByUser(ctx context.Context, userID string) ([]domain.SimulationRun, error)
	UpdateStatus(ctx context.Context, id string, status domain.RunStatus, errMsg string, completedAt *time.Time) error
	SaveResult(ctx context.Context, runID string, result domain.SimulationResult) error
	GetResult(ctx context.Context, runID string) (domain.SimulationResult, error)
}

// PgRunRepository implementa RunRepository usando pgxpool.
type PgRunRepository struct {
	pool *pgxpool.Pool
}

func NewPgRunRepository(pool *pgxpool.Pool) *PgRunRepository {
	return &PgRunRepository{pool: pool}
}

func (r *PgRunRepository) Create(ctx context.Context, run domain.SimulationRun) error {
	const query = `
		INSERT INTO simulation_runs (id, user_id, survey_id, segment_ids, requested_size, seed, status, error, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.UserID,
		run.SurveyID,
		run.SegmentIDs,
		run.RequestedSize,
		run.Seed,
		run.Status,
		run.Error,
		run.CreatedAt,
		run.CompletedAt,
	)
	return err
}

const runColumns = `id, user_id, survey_id, segment_ids, requested_size, seed, status, error, created_at, completed_at`

func (r *PgRunRepository) GetByID(ctx context.Context, id string) (domain.SimulationRun, error) {
	const query = `
		SELECT ` + runColumns + `
		FROM simulation_runs
		WHERE id = $1
	`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

func (r *PgRunRepository) ListByUser(ctx context.Context, userID string) ([]domain.SimulationRun, error) {
	const query = `
		SELECT ` + runColumns + `
		FROM simulation_runs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.SimulationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *PgRunRepository) UpdateStatus(ctx context.Context, id string, status domain.RunStatus, errMsg string, completedAt *time.Time) error {
	const query = `
		UPDATE simulation_runs
		SET status = $2, error = $3, completed_at = $4
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, status, errMsg, completedAt)
	return err
}

func (r *PgRunRepository) SaveResult(ctx context.Context, runID string, result domain.SimulationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO simulation_results (run_id, result, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id) DO UPDATE SET result = EXCLUDED.result
	`
	_, err = r.pool.Exec(ctx, query, runID, payload, time.Now().UTC())
	return err
}

func (r *PgRunRepository) GetResult(ctx context.Context, runID string) (domain.SimulationResult, error) {
	const query = `
		SELECT result
		FROM simulation_results
		WHERE run_id = $1
	`
	var payload []byte
	if err := r.pool.QueryRow(ctx, query, runID).Scan(&payload); err != nil {
		return domain.SimulationResult{}, err
	}
	var result domain.SimulationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.SimulationResult{}, err
	}
	return result, nil
}

func scanRun(row rowScanner) (domain.SimulationRun, error) {
	var run domain.SimulationRun
	err := row.Scan(
		&run.ID,
		&run.UserID,
		&run.SurveyID,
		&run.SegmentIDs,
		&run.RequestedSize,
		&run.Seed,
		&run.Status,
		&run.Error,
		&run.CreatedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return domain.SimulationRun{}, err
	}
	return run, nil
}
