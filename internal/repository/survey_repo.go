package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"crowd-sim/internal/domain"
)

// SurveyRepository define el contrato de persistencia para encuestas.
// Las preguntas se guardan como JSONB.
type SurveyRepository interface {
	Create(ctx context.Context, survey domain.Survey) error
	GetByID(ctx context.Context, id string) (domain.Survey, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Survey, error)
}

// PgSurveyRepository implementa SurveyRepository usando pgxpool.
type PgSurveyRepository struct {
	pool *pgxpool.Pool
}

func NewPgSurveyRepository(pool *pgxpool.Pool) *PgSurveyRepository {
	return &PgSurveyRepository{pool: pool}
}

func (r *PgSurveyRepository) Create(ctx context.Context, survey domain.Survey) error {
	questions, err := json.Marshal(survey.Questions)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO surveys (id, user_id, name, objective, questions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query,
		survey.ID,
		survey.UserID,
		survey.Name,
		survey.Objective,
		questions,
		survey.CreatedAt,
	)
	return err
}

func (r *PgSurveyRepository) GetByID(ctx context.Context, id string) (domain.Survey, error) {
	const query = `
		SELECT id, user_id, name, objective, questions, created_at
		FROM surveys
		WHERE id = $1
	`
	return scanSurvey(r.pool.QueryRow(ctx, query, id))
}

func (r *PgSurveyRepository) ListByUser(ctx context.Context, userID string) ([]domain.Survey, error) {
	const query = `
		SELECT id, user_id, name, objective, questions, created_at
		FROM surveys
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var surveys []domain.Survey
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		surveys = append(surveys, s)
	}
	return surveys, rows.Err()
}

func scanSurvey(row rowScanner) (domain.Survey, error) {
	var (
		s         domain.Survey
		questions []byte
	)
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.Objective,
		&questions,
		&s.CreatedAt,
	); err != nil {
		return domain.Survey{}, err
	}
	if err := json.Unmarshal(questions, &s.Questions); err != nil {
		return domain.Survey{}, err
	}
	return s, nil
}
