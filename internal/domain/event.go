package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventType — фиксированный словарь жизненного цикла агента.
type EventType string

const (
	EventSubagentSpawned   EventType = "subagent_spawned"
	EventSubagentCompleted EventType = "subagent_completed"
	EventSubagentFailed    EventType = "subagent_failed"
	EventSubagentTimeout   EventType = "subagent_timeout"
	EventCronExecuted      EventType = "cron_executed"
	EventSessionOpened     EventType = "session_opened"
	EventSessionClosed     EventType = "session_closed"
	EventModelChanged      EventType = "model_changed"
	EventPluginError       EventType = "plugin_error"
)

// KnownEventTypes — порядок стабильный, используется в сообщениях валидации.
var KnownEventTypes = []EventType{
	EventSubagentSpawned,
	EventSubagentCompleted,
	EventSubagentFailed,
	EventSubagentTimeout,
	EventCronExecuted,
	EventSessionOpened,
	EventSessionClosed,
	EventModelChanged,
	EventPluginError,
}

// AgentEvent — запись журнала жизненного цикла. Создается пушем плагина,
// после вставки неизменяема. Журнал обрезается до последних N строк
// (см. EventRepo.Prune), по умолчанию 500.
type AgentEvent struct {
	ID          int64                  `json:"id"`
	EventType   EventType              `json:"event_type"`
	AgentLabel  string                 `json:"agent_label,omitempty"`
	SessionKey  string                 `json:"session_key,omitempty"`
	Model       string                 `json:"model,omitempty"`
	Description string                 `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// ValidateEventType проверяет членство в словаре. Текст ошибки перечисляет
// допустимые значения — фронт показывает его как есть.
func ValidateEventType(t EventType) error {
	for _, known := range KnownEventTypes {
		if t == known {
			return nil
		}
	}
	allowed := make([]string, len(KnownEventTypes))
	for i, known := range KnownEventTypes {
		allowed[i] = string(known)
	}
	return fmt.Errorf("%w: event_type %q is not one of [%s]",
		ErrValidation, t, strings.Join(allowed, ", "))
}

// EventFilter — параметры выборки для чтения журнала.
// Limit клампится сервером до 100 независимо от запрошенного.
type EventFilter struct {
	Limit     int
	Since     time.Time // created_at строго больше Since
	TypeValue EventType // пустое значение — без фильтра
}
