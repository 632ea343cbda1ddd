package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS interview_sessions (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT,
		turn       INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interview_messages (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL REFERENCES interview_sessions(id) ON DELETE CASCADE,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS interview_messages_session_idx ON interview_messages (session_id, seq)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL,
		question_id INTEGER NOT NULL,
		content     TEXT NOT NULL,
		owner_id    TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		UNIQUE (session_id, question_id)
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id              TEXT PRIMARY KEY,
		session_id      TEXT NOT NULL UNIQUE,
		owner_id        TEXT,
		ai_analysis     TEXT NOT NULL,
		structured_data TEXT NOT NULL,
		created_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS profiles_owner_created_idx ON profiles (owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id          INTEGER PRIMARY KEY,
		category    TEXT NOT NULL,
		content     TEXT NOT NULL,
		order_num   INTEGER NOT NULL,
		is_required INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL
	)`,
}

// OpenSQLite abre (o crea) la base sqlite en path y aplica el esquema.
// Se usa una sola conexión: sqlite serializa las escrituras de todos modos y así
// se evitan errores SQLITE_BUSY bajo concurrencia.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying sqlite schema: %w", err)
		}
	}
	return conn, nil
}
