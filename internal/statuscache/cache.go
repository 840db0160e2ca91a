package statuscache

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/xela07ax/dashbot/internal/domain"
)

// Cache хранит единственный последний статус-снапшот, который пушит плагин.
// Истории нет: каждый Write полностью затирает предыдущее значение и
// перезапускает отсчет TTL (last-write-wins, без merge).
//
// Намеренно "глупый" компонент: корректность формы payload — целиком
// ответственность продюсера, мы храним сырой JSON.
type Cache struct {
	mu       sync.Mutex
	value    json.RawMessage
	deadline time.Time

	ttl time.Duration
	now func() time.Time // подменяется в тестах
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl: ttl,
		now: time.Now,
	}
}

// Write затирает хранимое значение и начинает новый отсчет истечения.
// Конкурентные записи не координируются: побеждает последняя целиком.
func (c *Cache) Write(payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = payload
	c.deadline = c.now().Add(c.ttl)
}

// Read возвращает последний снапшот, если он не истек, иначе —
// структурно-полный дефолтный объект. Потребители никогда не
// ветвятся на "есть данные / нет данных".
func (c *Cache) Read() json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value != nil && c.now().Before(c.deadline) {
		return c.value
	}

	// Ошибку маршалинга дефолта игнорируем осознанно: структура
	// статическая и сериализуется всегда.
	empty, _ := json.Marshal(domain.DefaultStatusPayload())
	return empty
}
