package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"persona-profiler/internal/config"
)

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Configuración razonable para ambientes iniciales.
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

// pgSchema crea las tablas si no existen. Las restricciones UNIQUE son las que
// cierran las carreras de escritura; el código de aplicación solo las traduce.
var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS interview_sessions (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT,
		turn       INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interview_messages (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL REFERENCES interview_sessions(id) ON DELETE CASCADE,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS interview_messages_session_idx ON interview_messages (session_id, seq)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL,
		question_id BIGINT NOT NULL,
		content     TEXT NOT NULL,
		owner_id    TEXT,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL,
		UNIQUE (session_id, question_id)
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id              TEXT PRIMARY KEY,
		session_id      TEXT NOT NULL UNIQUE,
		owner_id        TEXT,
		ai_analysis     TEXT NOT NULL,
		structured_data JSONB NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS profiles_owner_created_idx ON profiles (owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id          BIGINT PRIMARY KEY,
		category    TEXT NOT NULL,
		content     TEXT NOT NULL,
		order_num   INTEGER NOT NULL,
		is_required BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
}

// MigratePostgres aplica el esquema mínimo del servicio.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range pgSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
