package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn — одно браузерное подключение. Исходящие кадры идут через
// буферизованный send: переполнение буфера означает дроп кадра,
// а не блокировку рассылки (best-effort доставка).
type Conn struct {
	ws   *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	topics map[string]struct{} // имена Redis-каналов, на которые подписан клиент

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ws:     ws,
		send:   make(chan []byte, 64),
		topics: make(map[string]struct{}),
		done:   make(chan struct{}),
	}
}

// addTopic возвращает true, если подписки еще не было.
// Повторный subscribe на тот же топик с одного подключения — no-op.
func (c *Conn) addTopic(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.topics[channel]; ok {
		return false
	}
	c.topics[channel] = struct{}{}
	return true
}

// removeTopic возвращает true, если подписка была.
func (c *Conn) removeTopic(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.topics[channel]; !ok {
		return false
	}
	delete(c.topics, channel)
	return true
}

func (c *Conn) subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.topics[channel]
	return ok
}

// heldTopics — срез подписок на момент закрытия (для декремента гейта).
func (c *Conn) heldTopics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.topics))
	for t := range c.topics {
		out = append(out, t)
	}
	return out
}

// deliver кладет кадр в очередь отправки. Полный буфер — кадр дропается.
func (c *Conn) deliver(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		// Медленный клиент: теряем кадр, не тормозим остальных
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}
