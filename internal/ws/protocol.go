package ws

import (
	"context"
	"fmt"

	"github.com/xela07ax/dashbot/internal/console/service"
	"github.com/xela07ax/dashbot/internal/domain"
)

// Имена топиков, которыми оперирует браузер.
const (
	TopicStatus = "status"
	TopicEvents = "events"
	TopicChat   = "chat"
)

// Действия клиентского протокола.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionSendMessage = "send_message"
	ActionRespond     = "respond"
)

// clientFrame — входящий кадр от браузера. Поля заполняются по действию:
// subscribe/unsubscribe используют Topic (+SessionKey для чата),
// send_message — SessionKey и Body, respond — CardID и Response.
type clientFrame struct {
	Action     string `json:"action"`
	Topic      string `json:"topic,omitempty"`
	SessionKey string `json:"session_key,omitempty"`
	Body       string `json:"body,omitempty"`
	CardID     string `json:"card_id,omitempty"`
	Response   string `json:"response,omitempty"`
}

// errorFrame уходит клиенту при отказе действия. Current — актуальное
// состояние сущности при конфликте (реконсиляция оптимистичного UI).
type errorFrame struct {
	Type    string      `json:"type"` // всегда "error"
	Action  string      `json:"action"`
	Error   string      `json:"error"`
	Current interface{} `json:"current,omitempty"`
}

// ActionPerformer — именованные действия, доступные по WebSocket.
type ActionPerformer interface {
	SendMessage(ctx context.Context, sessionKey, role, body string, card *service.NewCardInput) (*domain.Message, error)
	RespondCard(ctx context.Context, cardID, response string) (*domain.Card, error)
}

func errUnknownTopic(topic string) error {
	return fmt.Errorf("%w: unknown topic %q", domain.ErrValidation, topic)
}
