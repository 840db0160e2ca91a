package service

import (
	"context"
	"encoding/json"

	"github.com/xela07ax/dashbot/internal/broker"
	"github.com/xela07ax/dashbot/internal/domain"
	"github.com/xela07ax/dashbot/internal/infra"
	"github.com/xela07ax/dashbot/internal/statuscache"
	"go.uber.org/zap"
)

// StatusService принимает пуши статуса от плагина и раздает их зрителям.
type StatusService struct {
	cache  *statuscache.Cache
	pub    broker.TopicPublisher
	logger *zap.Logger
}

func NewStatusService(cache *statuscache.Cache, pub broker.TopicPublisher, logger *zap.Logger) *StatusService {
	return &StatusService{
		cache:  cache,
		pub:    pub,
		logger: logger.Named("status-service"),
	}
}

// Push сохраняет снапшот в кэш и транслирует его в топик зрителей.
// Кэш — источник правды; broadcast лишь уведомление, его неудача
// ничего не откатывает.
func (s *StatusService) Push(ctx context.Context, payload json.RawMessage) {
	s.cache.Write(payload)

	frame := domain.StatusFrame{Type: domain.FrameStatus, Payload: payload}
	if err := s.pub.Publish(ctx, infra.RedisChanStatusUpdates, frame); err != nil {
		s.logger.Warn("status broadcast skipped", zap.Error(err))
	}
}

// Read отдает последний снапшот либо структурно-полный дефолт.
func (s *StatusService) Read() json.RawMessage {
	return s.cache.Read()
}
