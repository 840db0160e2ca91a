package service

import (
	"context"
	"fmt"

	"github.com/xela07ax/dashbot/internal/broker"
	"github.com/xela07ax/dashbot/internal/domain"
	"github.com/xela07ax/dashbot/internal/infra"
	"github.com/xela07ax/dashbot/internal/subagents"
	"go.uber.org/zap"
)

// MaxRecentLimit — потолок выборки журнала. Клиент может просить больше,
// сервер все равно клампит.
const MaxRecentLimit = 100

const defaultRecentLimit = 50

// EventRepository описывает требования к хранилищу журнала.
type EventRepository interface {
	InsertEvent(ctx context.Context, e *domain.AgentEvent) error
	RecentEvents(ctx context.Context, f domain.EventFilter) ([]domain.AgentEvent, error)
	PruneEvents(ctx context.Context, keep int) (int64, error)
}

// EventService — журнал жизненного цикла агента: append-only,
// обрезаемый до последних N строк, с live-трансляцией подписчикам.
type EventService struct {
	repo    EventRepository
	pub     broker.TopicPublisher
	logger  *zap.Logger
	metrics *infra.Metrics
	keep    int
}

func NewEventService(repo EventRepository, pub broker.TopicPublisher, logger *zap.Logger, metrics *infra.Metrics, keep int) *EventService {
	return &EventService{
		repo:    repo,
		pub:     pub,
		logger:  logger.Named("event-service"),
		metrics: metrics,
		keep:    keep,
	}
}

// Append валидирует тип, сохраняет событие и транслирует его в общий топик.
// Невалидный тип не создает ни строки, ни broadcast-а.
func (s *EventService) Append(ctx context.Context, e *domain.AgentEvent) error {
	if err := domain.ValidateEventType(e.EventType); err != nil {
		return err
	}

	if err := s.repo.InsertEvent(ctx, e); err != nil {
		s.logger.Error("failed to persist event",
			zap.String("event_type", string(e.EventType)),
			zap.Error(err))
		return fmt.Errorf("event append: %w", err)
	}

	s.metrics.EventsAppended.WithLabelValues(string(e.EventType)).Inc()

	// Запись уже в базе — неудачная трансляция её не откатывает
	frame := domain.EventFrame{Type: domain.FrameNewEvent, Event: *e}
	if err := s.pub.Publish(ctx, infra.RedisChanEvents, frame); err != nil {
		s.logger.Warn("event broadcast skipped", zap.Int64("id", e.ID), zap.Error(err))
	}

	return nil
}

// Recent отдает события от новых к старым. Limit клампится до MaxRecentLimit
// независимо от запрошенного значения.
func (s *EventService) Recent(ctx context.Context, f domain.EventFilter) ([]domain.AgentEvent, error) {
	if f.Limit <= 0 {
		f.Limit = defaultRecentLimit
	}
	if f.Limit > MaxRecentLimit {
		f.Limit = MaxRecentLimit
	}
	if f.TypeValue != "" {
		if err := domain.ValidateEventType(f.TypeValue); err != nil {
			return nil, err
		}
	}

	events, err := s.repo.RecentEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("event recent: %w", err)
	}
	return events, nil
}

// Prune — периодическая уборка журнала, не per-append. Оставляет keep
// самых свежих строк; на коротком журнале — no-op.
func (s *EventService) Prune(ctx context.Context) error {
	deleted, err := s.repo.PruneEvents(ctx, s.keep)
	if err != nil {
		s.logger.Error("event prune failed", zap.Error(err))
		return fmt.Errorf("event prune: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("event log pruned",
			zap.Int64("deleted", deleted),
			zap.Int("keep", s.keep))
	}
	return nil
}

// Subagents вычисляет производное представление сабагентов одной
// канонической сверткой. Вход свертки — всё окно ретенции журнала
// (keep строк), а не клиентский кламп чтения: работающий сабагент,
// чей spawn старше последних ста событий, обязан остаться в представлении.
func (s *EventService) Subagents(ctx context.Context) ([]subagents.Entry, error) {
	events, err := s.repo.RecentEvents(ctx, domain.EventFilter{Limit: s.keep})
	if err != nil {
		return nil, fmt.Errorf("subagents: %w", err)
	}
	return subagents.Derive(events), nil
}
