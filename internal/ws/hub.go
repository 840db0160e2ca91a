package ws

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/dashbot/internal/broker"
	"github.com/xela07ax/dashbot/internal/infra"
	"go.uber.org/zap"
)

// SubscriptionGate — счетчик зрителей статус-топика (см. internal/gate).
type SubscriptionGate interface {
	Subscribe(ctx context.Context)
	Unsubscribe(ctx context.Context)
}

// SessionResolver переводит пользовательский ключ сессии во внутренний id.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionKey string) (string, error)
}

// Hub ретранслирует топики Redis живым браузерным подключениям.
// Хаб держит по одной Redis-подписке на шаблон и раздает кадры локально —
// кадры уходят подписчикам как есть, без переупаковки.
type Hub struct {
	mu    sync.Mutex
	conns map[*Conn]struct{}

	gate     SubscriptionGate
	actions  ActionPerformer
	sessions SessionResolver
	logger   *zap.Logger
	metrics  *infra.Metrics
}

func NewHub(gate SubscriptionGate, actions ActionPerformer, sessions SessionResolver, logger *zap.Logger, metrics *infra.Metrics) *Hub {
	return &Hub{
		conns:    make(map[*Conn]struct{}),
		gate:     gate,
		actions:  actions,
		sessions: sessions,
		logger:   logger.Named("ws-hub"),
		metrics:  metrics,
	}
}

// Run поднимает Redis-слушателей хаба и блокируется до отмены контекста.
func (h *Hub) Run(ctx context.Context, rdb *redis.Client) {
	var wg sync.WaitGroup
	for _, pattern := range []string{
		infra.RedisChanStatusUpdates,
		infra.RedisChanEvents,
		infra.RedisChanChatPrefix + "*",
	} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			broker.ListenResilient(ctx, rdb, h.logger, p, h.relay)
		}(pattern)
	}
	wg.Wait()
}

// relay раздает кадр из Redis всем локальным подписчикам канала.
func (h *Hub) relay(channel string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if c.subscribed(channel) {
			c.deliver(payload)
		}
	}
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.metrics.WSConnections.Set(float64(n))
}

// unregister снимает подключение и возвращает гейту все удержанные
// подписки на статус — ровно по одной на подключение.
func (h *Hub) unregister(ctx context.Context, c *Conn) {
	h.mu.Lock()
	_, present := h.conns[c]
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()

	if !present {
		return
	}
	h.metrics.WSConnections.Set(float64(n))

	for _, topic := range c.heldTopics() {
		if topic == infra.RedisChanStatusUpdates {
			h.gate.Unsubscribe(ctx)
		}
	}
	c.close()
}

// channelFor маппит пользовательское имя топика на канал Redis.
// Для чата ключ сессии резолвится в id (сессия заводится лениво).
func (h *Hub) channelFor(ctx context.Context, topic, sessionKey string) (string, error) {
	switch topic {
	case TopicStatus:
		return infra.RedisChanStatusUpdates, nil
	case TopicEvents:
		return infra.RedisChanEvents, nil
	case TopicChat:
		id, err := h.sessions.ResolveSession(ctx, sessionKey)
		if err != nil {
			return "", err
		}
		return infra.ChatChannel(id), nil
	}
	return "", errUnknownTopic(topic)
}
