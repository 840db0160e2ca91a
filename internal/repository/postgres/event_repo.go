package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/xela07ax/dashbot/internal/domain"
)

// InsertEvent вставляет событие журнала и заполняет id/created_at из базы.
// Запись после вставки неизменяема.
func (s *Store) InsertEvent(ctx context.Context, e *domain.AgentEvent) error {
	query := `
		INSERT INTO agent_events (event_type, agent_label, session_key, model, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		string(e.EventType), e.AgentLabel, e.SessionKey, e.Model, e.Description, e.Metadata,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert event: %w", err)
	}
	return nil
}

// RecentEvents отдает события от новых к старым. Кламп лимита — забота
// сервиса, репозиторий исполняет фильтр как есть.
func (s *Store) RecentEvents(ctx context.Context, f domain.EventFilter) ([]domain.AgentEvent, error) {
	query := `
		SELECT id, event_type, agent_label, session_key, model, description, metadata, created_at
		FROM agent_events
		WHERE ($1::timestamptz IS NULL OR created_at > $1)
		  AND ($2 = '' OR event_type = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var since *time.Time
	if !f.Since.IsZero() {
		since = &f.Since
	}

	rows, err := s.pool.Query(ctx, query, since, string(f.TypeValue), f.Limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.AgentEvent, 0, f.Limit)
	for rows.Next() {
		var e domain.AgentEvent
		if err := rows.Scan(
			&e.ID, &e.EventType, &e.AgentLabel, &e.SessionKey,
			&e.Model, &e.Description, &e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// PruneEvents оставляет ровно keep самых свежих строк по порядку id.
// Нижняя граница — id со смещением keep от самой новой строки; если строк
// меньше keep, подзапрос пуст и DELETE не трогает ничего.
func (s *Store) PruneEvents(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM agent_events
		WHERE id <= (
			SELECT id FROM agent_events
			ORDER BY id DESC
			OFFSET $1 LIMIT 1
		)`

	tag, err := s.pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("postgres: prune events: %w", err)
	}
	return tag.RowsAffected(), nil
}
