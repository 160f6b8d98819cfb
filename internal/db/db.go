package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"bigfive-api/internal/config"
)

const pingTimeout = 3 * time.Second

// Open crea el pool, comprueba la conexion y aplica el esquema. Un ping
// fallido solo se registra: pgxpool reconecta en la siguiente consulta.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("db ping failed", zap.Error(err))
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("assessments store ready", zap.Int32("max_conns", pool.Config().MaxConns))
	return pool, nil
}

// NewPool arma el pool de assessments con los limites de cfg.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	applyPoolLimits(poolCfg, cfg)
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

func applyPoolLimits(poolCfg *pgxpool.Config, cfg *config.Config) {
	maxConns := int32(cfg.DBMaxConns)
	if maxConns <= 0 {
		maxConns = 10
	}
	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout()
}
