package broker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ListenResilient — универсальный цикл "живучей" подписки на топик Redis.
// Обрабатывает переподключения и отдает сырые сообщения в callback.
// Используется WebSocket-хабом для ретрансляции топиков браузерам.
func ListenResilient(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	pattern string, // поддерживает глоб-шаблоны (dashbot:chat:*)
	onMessage func(channel string, payload []byte),
) {
	for {
		if ctx.Err() != nil {
			return
		}

		pubsub := rdb.PSubscribe(ctx, pattern)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			logger.Error("failed to subscribe", zap.String("pattern", pattern), zap.Error(err))
			pubsub.Close()
			time.Sleep(5 * time.Second)
			continue
		}

		ch := pubsub.Channel()
		logger.Info("topic listener started", zap.String("pattern", pattern))

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}
				onMessage(msg.Channel, []byte(msg.Payload))
			}
		}

		pubsub.Close()
		time.Sleep(1 * time.Second)
	}
}
