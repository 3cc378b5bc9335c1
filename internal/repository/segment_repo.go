package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"crowd-sim/internal/domain"
)

// SegmentRepository define el contrato de persistencia para segmentos de
// audiencia. Los criterios anidados se guardan como JSONB.
type SegmentRepository interface {
	Create(ctx context.Context, segment domain.Segment) error
	GetByID(ctx context.Context, id string) (domain.Segment, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Segment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Segment, error)
}

// PgSegmentRepository implementa SegmentRepository usando pgxpool.
type PgSegmentRepository struct {
	pool *pgxpool.Pool
}

func NewPgSegmentRepository(pool *pgxpool.Pool) *PgSegmentRepository {
	return &PgSegmentRepository{pool: pool}
}

func (r *PgSegmentRepository) Create(ctx context.Context, segment domain.Segment) error {
	demographics, err := json.Marshal(segment.Demographics)
	if err != nil {
		return err
	}
	psychographics, err := json.Marshal(segment.Psychographics)
	if err != nil {
		return err
	}
	behaviors, err := json.Marshal(segment.Behaviors)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO segments (id, user_id, name, weight, demographics, psychographics, behaviors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		segment.ID,
		segment.UserID,
		segment.Name,
		segment.Weight,
		demographics,
		psychographics,
		behaviors,
		segment.CreatedAt,
	)
	return err
}

const segmentColumns = `id, user_id, name, weight, demographics, psychographics, behaviors, created_at`

func (r *PgSegmentRepository) GetByID(ctx context.Context, id string) (domain.Segment, error) {
	const query = `
		SELECT ` + segmentColumns + `
		FROM segments
		WHERE id = $1
	`
	return scanSegment(r.pool.QueryRow(ctx, query, id))
}

func (r *PgSegmentRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Segment, error) {
	const query = `
		SELECT ` + segmentColumns + `
		FROM segments
		WHERE id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []domain.Segment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func (r *PgSegmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Segment, error) {
	const query = `
		SELECT ` + segmentColumns + `
		FROM segments
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []domain.Segment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func scanSegment(row rowScanner) (domain.Segment, error) {
	var (
		s              domain.Segment
		demographics   []byte
		psychographics []byte
		behaviors      []byte
	)
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.Weight,
		&demographics,
		&psychographics,
		&behaviors,
		&s.CreatedAt,
	); err != nil {
		return domain.Segment{}, err
	}
	if err := json.Unmarshal(demographics, &s.Demographics); err != nil {
		return domain.Segment{}, err
	}
	if err := json.Unmarshal(psychographics, &s.Psychographics); err != nil {
		return domain.Segment{}, err
	}
	if err := json.Unmarshal(behaviors, &s.Behaviors); err != nil {
		return domain.Segment{}, err
	}
	return s, nil
}
