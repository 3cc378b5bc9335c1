package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"crowd-sim/internal/config"
)

// Los resultados de una corrida se persisten en un solo insert grande, así que
// las conexiones pueden quedar ocupadas varios segundos.
const (
	connLifetime      = 30 * time.Minute
	connIdleTime      = 5 * time.Minute
	healthCheckPeriod = 30 * time.Second
	connectTimeout    = 5 * time.Second
)

// NewPool construye un pool de conexiones dimensionado desde la configuración.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns > 0 && cfg.DBMinConns <= poolCfg.MaxConns {
		poolCfg.MinConns = cfg.DBMinConns
	}
	poolCfg.MaxConnLifetime = connLifetime
	poolCfg.MaxConnIdleTime = connIdleTime
	poolCfg.HealthCheckPeriod = healthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = connectTimeout

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}
