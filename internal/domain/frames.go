package domain

import "encoding/json"

// Типизированные формы broadcast-кадров. Заменяют map[string]interface{}
// в горячих местах рассылки — продюсер и браузер сходятся по форме заранее.

// Имена типов кадров, поле "type" в JSON.
const (
	FrameNewEvent      = "new_event"
	FrameMessage       = "message"
	FrameCardResponded = "card_responded"
	FrameClear         = "clear"
	FrameStatus        = "status"
)

// EventFrame транслируется в топик журнала после успешной вставки события.
type EventFrame struct {
	Type  string     `json:"type"` // всегда "new_event"
	Event AgentEvent `json:"event"`
}

// MessageFrame — новое сообщение в топике сессии.
type MessageFrame struct {
	Type    string  `json:"type"` // всегда "message"
	Message Message `json:"message"`
}

// CardRespondedFrame — смена состояния карточки.
type CardRespondedFrame struct {
	Type      string `json:"type"` // всегда "card_responded"
	CardID    string `json:"card_id"`
	MessageID string `json:"message_id"`
	Response  string `json:"response"`
	Reply     string `json:"reply,omitempty"`
}

// ClearFrame — история сессии очищена.
type ClearFrame struct {
	Type string `json:"type"` // всегда "clear"
}

// StatusFrame — очередной снапшот статуса для зрителей дашборда.
// Payload остается сырым: форму определяет плагин.
type StatusFrame struct {
	Type    string          `json:"type"` // всегда "status"
	Payload json.RawMessage `json:"payload"`
}
