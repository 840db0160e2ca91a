package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/dashbot/internal/domain"
)

// ListSessions отдает сессии чата, свежие сверху.
func (s *Store) ListSessions(ctx context.Context) ([]domain.ChatSession, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, key, title, created_at, updated_at
		FROM chat_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.ChatSession, 0)
	for rows.Next() {
		var cs domain.ChatSession
		if err := rows.Scan(&cs.ID, &cs.Key, &cs.Title, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan session: %w", err)
		}
		sessions = append(sessions, cs)
	}
	return sessions, rows.Err()
}

// EnsureSession находит сессию по ключу либо создает новую.
// Плагин и браузер адресуют сессии строковым ключом, UUID — внутренний.
func (s *Store) EnsureSession(ctx context.Context, key, title string) (*domain.ChatSession, error) {
	cs := &domain.ChatSession{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO chat_sessions (id, key, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET updated_at = NOW()
		RETURNING id, key, title, created_at, updated_at`,
		uuid.New().String(), key, title,
	).Scan(&cs.ID, &cs.Key, &cs.Title, &cs.CreatedAt, &cs.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: ensure session: %w", err)
	}
	return cs, nil
}

// GetSessionByKey возвращает сессию либо domain.ErrNotFound.
func (s *Store) GetSessionByKey(ctx context.Context, key string) (*domain.ChatSession, error) {
	cs := &domain.ChatSession{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, key, title, created_at, updated_at
		FROM chat_sessions WHERE key = $1`, key,
	).Scan(&cs.ID, &cs.Key, &cs.Title, &cs.CreatedAt, &cs.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get session: %w", err)
	}
	return cs, nil
}

// InsertMessage сохраняет сообщение и, если оно несет карточку, карточку
// вместе с ним — в одной транзакции.
func (s *Store) InsertMessage(ctx context.Context, m *domain.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO messages (id, session_id, role, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		m.ID, m.SessionID, m.Role, m.Body,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert message: %w", err)
	}

	if m.Card != nil {
		c := m.Card
		err = tx.QueryRow(ctx, `
			INSERT INTO cards (id, message_id, kind, prompt, options, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`,
			c.ID, c.MessageID, string(c.Kind), c.Prompt, c.Options, string(c.Status),
		).Scan(&c.CreatedAt)
		if err != nil {
			return fmt.Errorf("postgres: insert card: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1`, m.SessionID); err != nil {
		return fmt.Errorf("postgres: touch session: %w", err)
	}

	return tx.Commit(ctx)
}

// ListMessages отдает сообщения сессии от старых к новым, с карточками.
func (s *Store) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.session_id, m.role, m.body, m.created_at,
		       c.id, c.kind, c.prompt, c.options, c.status, c.response, c.reply, c.responded_at, c.created_at
		FROM messages m
		LEFT JOIN cards c ON c.message_id = m.id
		WHERE m.session_id = $1
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		var cardID, cardKind, cardPrompt, cardStatus, cardResponse, cardReply *string
		var cardOptions []string
		var respondedAt, cardCreatedAt *time.Time

		if err := rows.Scan(
			&m.ID, &m.SessionID, &m.Role, &m.Body, &m.CreatedAt,
			&cardID, &cardKind, &cardPrompt, &cardOptions, &cardStatus,
			&cardResponse, &cardReply, &respondedAt, &cardCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan message: %w", err)
		}

		if cardID != nil {
			m.Card = &domain.Card{
				ID:          *cardID,
				MessageID:   m.ID,
				Kind:        domain.CardKind(*cardKind),
				Prompt:      *cardPrompt,
				Options:     cardOptions,
				Status:      domain.CardStatus(*cardStatus),
				Response:    *cardResponse,
				Reply:       *cardReply,
				RespondedAt: respondedAt,
			}
			if cardCreatedAt != nil {
				m.Card.CreatedAt = *cardCreatedAt
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// GetCard возвращает карточку либо domain.ErrNotFound.
func (s *Store) GetCard(ctx context.Context, cardID string) (*domain.Card, error) {
	c := &domain.Card{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, message_id, kind, prompt, options, status, response, reply, responded_at, created_at
		FROM cards WHERE id = $1`, cardID,
	).Scan(&c.ID, &c.MessageID, &c.Kind, &c.Prompt, &c.Options,
		&c.Status, &c.Response, &c.Reply, &c.RespondedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get card: %w", err)
	}
	return c, nil
}

// RespondCard выполняет охраняемый переход pending -> responded.
// Guard целиком в WHERE: второй ответ не находит строку и не мутирует её.
func (s *Store) RespondCard(ctx context.Context, cardID, response string) (*domain.Card, error) {
	c := &domain.Card{}
	err := s.pool.QueryRow(ctx, `
		UPDATE cards
		SET status = 'responded', response = $2, responded_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, message_id, kind, prompt, options, status, response, reply, responded_at, created_at`,
		cardID, response,
	).Scan(&c.ID, &c.MessageID, &c.Kind, &c.Prompt, &c.Options,
		&c.Status, &c.Response, &c.Reply, &c.RespondedAt, &c.CreatedAt)

	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres: respond card: %w", err)
	}

	// Строка не взялась: либо карточки нет, либо она уже отвечена.
	// Возвращаем текущее состояние, чтобы вызывающий мог среконсилить UI.
	current, getErr := s.GetCard(ctx, cardID)
	if getErr != nil {
		return nil, getErr
	}
	return current, domain.ErrConflict
}

// AttachCardReply добавляет комментарий агента к уже отвеченной карточке.
// Статус не меняется: это не переход состояния.
func (s *Store) AttachCardReply(ctx context.Context, cardID, reply string) (*domain.Card, error) {
	c := &domain.Card{}
	err := s.pool.QueryRow(ctx, `
		UPDATE cards SET reply = $2 WHERE id = $1
		RETURNING id, message_id, kind, prompt, options, status, response, reply, responded_at, created_at`,
		cardID, reply,
	).Scan(&c.ID, &c.MessageID, &c.Kind, &c.Prompt, &c.Options,
		&c.Status, &c.Response, &c.Reply, &c.RespondedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: attach reply: %w", err)
	}
	return c, nil
}

// SessionIDForMessage возвращает id сессии, которой принадлежит сообщение.
func (s *Store) SessionIDForMessage(ctx context.Context, messageID string) (string, error) {
	var sessionID string
	err := s.pool.QueryRow(ctx,
		`SELECT session_id FROM messages WHERE id = $1`, messageID,
	).Scan(&sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("postgres: session for message: %w", err)
	}
	return sessionID, nil
}

// ClearMessages удаляет историю сессии (карточки уходят каскадом).
func (s *Store) ClearMessages(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM messages WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("postgres: clear messages: %w", err)
	}
	return nil
}
