package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"crowd-sim/internal/domain"
)

// DataSourceRepository define el contrato de persistencia para fuentes de
// datos de investigación y sus embeddings de insights.
type DataSourceRepository interface {
	Create(ctx context.Context, source domain.DataSource) error
	GetByID(ctx context.Context, id string) (domain.DataSource, error)
	ListByUser(ctx context.Context, userID string) ([]domain.DataSource, error)
	CreateEmbedding(ctx context.Context, embedding domain.InsightEmbedding) error
	SearchInsights(ctx context.Context, userID string, query pgvector.Vector, k int) ([]domain.InsightEmbedding, error)
}

// PgDataSourceRepository implementa DataSourceRepository usando pgxpool.
type PgDataSourceRepository struct {
	pool *pgxpool.Pool
}

func NewPgDataSourceRepository(pool *pgxpool.Pool) *PgDataSourceRepository {
	return &PgDataSourceRepository{pool: pool}
}

func (r *PgDataSourceRepository) Create(ctx context.Context, source domain.DataSource) error {
	const query = `
		INSERT INTO data_sources (id, user_id, type, name, relevant_segments, keywords, insights, quality, verified, conflicts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		source.ID,
		source.UserID,
		source.Type,
		source.Name,
		source.RelevantSegments,
		source.Keywords,
		source.Insights,
		source.Quality,
		source.Verified,
		source.Conflicts,
		source.CreatedAt,
	)
	return err
}

const dataSourceColumns = `id, user_id, type, name, relevant_segments, keywords, insights, quality, verified, conflicts, created_at`

func (r *PgDataSourceRepository) GetByID(ctx context.Context, id string) (domain.DataSource, error) {
	const query = `
		SELECT ` + dataSourceColumns + `
		FROM data_sources
		WHERE id = $1
	`
	return scanDataSource(r.pool.QueryRow(ctx, query, id))
}

func (r *PgDataSourceRepository) ListByUser(ctx context.Context, userID string) ([]domain.DataSource, error) {
	const query = `
		SELECT ` + dataSourceColumns + `
		FROM data_sources
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []domain.DataSource
	for rows.Next() {
		s, err := scanDataSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (r *PgDataSourceRepository) CreateEmbedding(ctx context.Context, embedding domain.InsightEmbedding) error {
	const query = `
		INSERT INTO insight_embeddings (id, source_id, insight, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		embedding.ID,
		embedding.SourceID,
		embedding.Insight,
		embedding.Embedding,
		embedding.CreatedAt,
	)
	return err
}

// SearchInsights busca los k insights más cercanos por distancia coseno entre
// todas las fuentes del usuario.
func (r *PgDataSourceRepository) SearchInsights(ctx context.Context, userID string, query pgvector.Vector, k int) ([]domain.InsightEmbedding, error) {
	if k <= 0 {
		k = 5
	}
	const sql = `
		SELECT e.id, e.source_id, e.insight, e.embedding, e.created_at
		FROM insight_embeddings e
		JOIN data_sources d ON d.id = e.source_id
		WHERE d.user_id = $1
		ORDER BY e.embedding <=> $2
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, sql, userID, query, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var embeddings []domain.InsightEmbedding
	for rows.Next() {
		var e domain.InsightEmbedding
		if err := rows.Scan(
			&e.ID,
			&e.SourceID,
			&e.Insight,
			&e.Embedding,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		embeddings = append(embeddings, e)
	}
	return embeddings, rows.Err()
}

func scanDataSource(row rowScanner) (domain.DataSource, error) {
	var s domain.DataSource
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Type,
		&s.Name,
		&s.RelevantSegments,
		&s.Keywords,
		&s.Insights,
		&s.Quality,
		&s.Verified,
		&s.Conflicts,
		&s.CreatedAt,
	)
	if err != nil {
		return domain.DataSource{}, err
	}
	return s, nil
}
