package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/xela07ax/dashbot/internal/broker"
	"github.com/xela07ax/dashbot/internal/domain"
	"github.com/xela07ax/dashbot/internal/infra"
	"go.uber.org/zap"
)

// ChatRepository описывает требования к хранилищу чата.
type ChatRepository interface {
	ListSessions(ctx context.Context) ([]domain.ChatSession, error)
	EnsureSession(ctx context.Context, key, title string) (*domain.ChatSession, error)
	GetSessionByKey(ctx context.Context, key string) (*domain.ChatSession, error)
	InsertMessage(ctx context.Context, m *domain.Message) error
	ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	GetCard(ctx context.Context, cardID string) (*domain.Card, error)
	RespondCard(ctx context.Context, cardID, response string) (*domain.Card, error)
	AttachCardReply(ctx context.Context, cardID, reply string) (*domain.Card, error)
	SessionIDForMessage(ctx context.Context, messageID string) (string, error)
	ClearMessages(ctx context.Context, sessionID string) error
}

// NewCardInput — карточка, приходящая вместе с сообщением агента.
type NewCardInput struct {
	Kind    domain.CardKind `json:"kind"`
	Prompt  string          `json:"prompt"`
	Options []string        `json:"options,omitempty"`
}

// ChatService — переписка с агентом: персист + трансляция в per-session топик.
type ChatService struct {
	repo   ChatRepository
	pub    broker.TopicPublisher
	logger *zap.Logger
}

func NewChatService(repo ChatRepository, pub broker.TopicPublisher, logger *zap.Logger) *ChatService {
	return &ChatService{
		repo:   repo,
		pub:    pub,
		logger: logger.Named("chat-service"),
	}
}

// ResolveSession переводит пользовательский ключ сессии во внутренний id,
// лениво заводя сессию. Используется WebSocket-хабом при подписке на чат.
func (s *ChatService) ResolveSession(ctx context.Context, sessionKey string) (string, error) {
	if sessionKey == "" {
		return "", fmt.Errorf("%w: session key is required", domain.ErrValidation)
	}
	cs, err := s.repo.EnsureSession(ctx, sessionKey, sessionKey)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return cs.ID, nil
}

func (s *ChatService) ListSessions(ctx context.Context) ([]domain.ChatSession, error) {
	sessions, err := s.repo.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat: list sessions: %w", err)
	}
	// Фронтенд всегда получает массив, не null
	if sessions == nil {
		sessions = []domain.ChatSession{}
	}
	return sessions, nil
}

func (s *ChatService) History(ctx context.Context, sessionKey string, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	cs, err := s.repo.GetSessionByKey(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, cs.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("chat: history: %w", err)
	}
	return messages, nil
}

// SendMessage сохраняет сообщение (с карточкой, если она есть) и транслирует
// его в топик сессии. Сессия заводится лениво по ключу.
func (s *ChatService) SendMessage(ctx context.Context, sessionKey, role, body string, card *NewCardInput) (*domain.Message, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("%w: session key is required", domain.ErrValidation)
	}
	if body == "" && card == nil {
		return nil, fmt.Errorf("%w: message body is required", domain.ErrValidation)
	}
	if role != domain.RoleUser && role != domain.RoleAgent {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	cs, err := s.repo.EnsureSession(ctx, sessionKey, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	m := &domain.Message{
		ID:        uuid.New().String(),
		SessionID: cs.ID,
		Role:      role,
		Body:      body,
	}
	if card != nil {
		if card.Prompt == "" {
			return nil, fmt.Errorf("%w: card prompt is required", domain.ErrValidation)
		}
		if card.Kind != domain.CardConfirm && card.Kind != domain.CardSelect {
			return nil, fmt.Errorf("%w: unknown card kind %q", domain.ErrValidation, card.Kind)
		}
		if card.Kind == domain.CardSelect && len(card.Options) == 0 {
			return nil, fmt.Errorf("%w: select card requires options", domain.ErrValidation)
		}
		m.Card = &domain.Card{
			ID:        uuid.New().String(),
			MessageID: m.ID,
			Kind:      card.Kind,
			Prompt:    card.Prompt,
			Options:   card.Options,
			Status:    domain.CardPending,
		}
	}

	if err := s.repo.InsertMessage(ctx, m); err != nil {
		s.logger.Error("failed to persist message",
			zap.String("session_key", sessionKey),
			zap.Error(err))
		return nil, fmt.Errorf("chat: %w", err)
	}

	frame := domain.MessageFrame{Type: domain.FrameMessage, Message: *m}
	if err := s.pub.Publish(ctx, infra.ChatChannel(cs.ID), frame); err != nil {
		s.logger.Warn("message broadcast skipped", zap.String("message_id", m.ID), zap.Error(err))
	}

	return m, nil
}

// RespondCard проводит единственный переход pending -> responded.
// Повторная попытка получает ErrConflict вместе с актуальным состоянием
// карточки — чтобы вызывающий среконсилил оптимистичный UI, а не падал.
func (s *ChatService) RespondCard(ctx context.Context, cardID, response string) (*domain.Card, error) {
	if response == "" {
		return nil, fmt.Errorf("%w: response value is required", domain.ErrValidation)
	}

	card, err := s.repo.RespondCard(ctx, cardID, response)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// card здесь — текущее состояние, отдаем его наверх
			return card, err
		}
		return nil, err
	}

	s.broadcastCard(ctx, card)
	return card, nil
}

// AttachReply прикрепляет комментарий агента к карточке, не меняя статус.
func (s *ChatService) AttachReply(ctx context.Context, cardID, reply string) (*domain.Card, error) {
	card, err := s.repo.AttachCardReply(ctx, cardID, reply)
	if err != nil {
		return nil, err
	}
	s.broadcastCard(ctx, card)
	return card, nil
}

func (s *ChatService) broadcastCard(ctx context.Context, card *domain.Card) {
	sessionID, err := s.repo.SessionIDForMessage(ctx, card.MessageID)
	if err != nil {
		s.logger.Warn("card broadcast skipped", zap.String("card_id", card.ID), zap.Error(err))
		return
	}
	frame := domain.CardRespondedFrame{
		Type:      domain.FrameCardResponded,
		CardID:    card.ID,
		MessageID: card.MessageID,
		Response:  card.Response,
		Reply:     card.Reply,
	}
	if err := s.pub.Publish(ctx, infra.ChatChannel(sessionID), frame); err != nil {
		s.logger.Warn("card broadcast skipped", zap.String("card_id", card.ID), zap.Error(err))
	}
}

// Clear стирает историю сессии и шлет подписчикам {type: clear}.
func (s *ChatService) Clear(ctx context.Context, sessionKey string) error {
	cs, err := s.repo.GetSessionByKey(ctx, sessionKey)
	if err != nil {
		return err
	}
	if err := s.repo.ClearMessages(ctx, cs.ID); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	frame := domain.ClearFrame{Type: domain.FrameClear}
	if err := s.pub.Publish(ctx, infra.ChatChannel(cs.ID), frame); err != nil {
		s.logger.Warn("clear broadcast skipped", zap.String("session_key", sessionKey), zap.Error(err))
	}
	return nil
}
