package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/dashbot/internal/infra"
	"go.uber.org/zap"
)

// TopicPublisher — контракт fire-and-forget публикации в топик.
// Сообщение либо дойдет до живых подписчиков, либо нет: никаких
// подтверждений, ретраев или at-least-once сверх того, что дает брокер.
type TopicPublisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// RedisPublisher публикует JSON-сообщения в Redis Pub/Sub.
// Обернут в Circuit Breaker: при лежащем Redis мы не молотим его каждым
// broadcast-ом, а быстро дропаем — семантика доставки от этого не меняется.
type RedisPublisher struct {
	rdb     *redis.Client
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *infra.Metrics
}

func NewRedisPublisher(rdb *redis.Client, logger *zap.Logger, metrics *infra.Metrics) *RedisPublisher {
	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dashbot-broker",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     15 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &RedisPublisher{
		rdb:     rdb,
		cb:      cb,
		logger:  logger.Named("broker"),
		metrics: metrics,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("broker: marshal for %s: %w", channel, err)
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.rdb.Publish(ctx, channel, data).Err()
	})
	if err != nil {
		p.metrics.BroadcastFailures.WithLabelValues(channel).Inc()
		p.logger.Warn("broadcast delivery failed",
			zap.String("channel", channel),
			zap.Error(err))
		return fmt.Errorf("broker: publish to %s: %w", channel, err)
	}
	return nil
}
