package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xela07ax/dashbot/internal/infra"
)

// Store — общий пул соединений для всех репозиториев дашборда.
// Методы доменов разнесены по файлам: event_repo.go, chat_repo.go, user_repo.go.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, cfg infra.DatabaseConfig) (*Store, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	pc.MaxConns = int32(cfg.MaxConns)
	pc.MinConns = int32(cfg.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Ping проверяет доступность базы при старте
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema создает таблицы при первом запуске. Дашборд — один бинарь,
// отдельного механизма миграций у него нет.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS agent_events (
		id          BIGSERIAL PRIMARY KEY,
		event_type  TEXT NOT NULL,
		agent_label TEXT NOT NULL DEFAULT '',
		session_key TEXT NOT NULL DEFAULT '',
		model       TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		metadata    JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_agent_events_created_at ON agent_events (created_at);
	CREATE INDEX IF NOT EXISTS idx_agent_events_type ON agent_events (event_type);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id         UUID PRIMARY KEY,
		key        TEXT NOT NULL UNIQUE,
		title      TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
		role       TEXT NOT NULL,
		body       TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages (session_id, created_at);

	CREATE TABLE IF NOT EXISTS cards (
		id           UUID PRIMARY KEY,
		message_id   UUID NOT NULL UNIQUE REFERENCES messages(id) ON DELETE CASCADE,
		kind         TEXT NOT NULL,
		prompt       TEXT NOT NULL DEFAULT '',
		options      JSONB,
		status       TEXT NOT NULL DEFAULT 'pending',
		response     TEXT NOT NULL DEFAULT '',
		reply        TEXT NOT NULL DEFAULT '',
		responded_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}
