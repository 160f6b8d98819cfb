package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema aplica el DDL idempotente de la API. Se llama una vez al
// arrancar, despues de NewPool.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("schema: pool is nil")
	}
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS assessments (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT,
		name                TEXT NOT NULL DEFAULT '',
		age                 INTEGER,
		country             TEXT,
		university          TEXT,
		session             JSONB NOT NULL DEFAULT '{}'::jsonb,
		responses           JSONB NOT NULL,
		question_timestamps JSONB,
		scores              JSONB NOT NULL,
		predictions         JSONB NOT NULL,
		guidance            JSONB,
		total_duration_ms   BIGINT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS assessments_created_at_idx ON assessments (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS assessments_country_idx ON assessments (lower(country))`,
}
