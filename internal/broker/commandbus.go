package broker

import (
	"context"

	"github.com/xela07ax/dashbot/internal/domain"
	"github.com/xela07ax/dashbot/internal/infra"
	"go.uber.org/zap"
)

// CommandSink — контракт отправки команды плагину.
// Сервисы-продюсеры зависят от него, а не от Redis напрямую.
type CommandSink interface {
	Send(ctx context.Context, cmd domain.CommandMessage) error
}

// CommandBus публикует типизированные команды в единственный канал плагина.
// Плагин держит одну подписку на dashbot:plugin_commands и получает весь
// управляющий трафик — сознательное упрощение вместо per-command каналов.
type CommandBus struct {
	pub     TopicPublisher
	logger  *zap.Logger
	metrics *infra.Metrics
}

func NewCommandBus(pub TopicPublisher, logger *zap.Logger, metrics *infra.Metrics) *CommandBus {
	return &CommandBus{
		pub:     pub,
		logger:  logger.Named("command-bus"),
		metrics: metrics,
	}
}

// Send публикует ровно одно сообщение и возвращается сразу: никакого
// ожидания эффекта на стороне агента. Ошибка доставки — best-effort,
// вызывающий код её логирует и живет дальше.
func (b *CommandBus) Send(ctx context.Context, cmd domain.CommandMessage) error {
	if err := b.pub.Publish(ctx, infra.RedisChanPluginCommands, cmd); err != nil {
		return err
	}

	b.metrics.CommandsPublished.WithLabelValues(string(cmd.Kind)).Inc()
	b.logger.Info("command published",
		zap.String("kind", string(cmd.Kind)),
		zap.String("job_id", cmd.JobID),
		zap.String("session_key", cmd.SessionKey))
	return nil
}
