package domain

import "time"

// Роли автора сообщения в чате.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// ChatSession — одна переписка с агентом. У сессии много сообщений.
type ChatSession struct {
	ID        string    `json:"id"` // UUID
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message — сообщение чата. Может владеть одной карточкой (Card != nil).
type Message struct {
	ID        string    `json:"id"` // UUID
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Body      string    `json:"body"`
	Card      *Card     `json:"card,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Статусы карточки. Переход pending -> responded происходит ровно один раз.
type CardStatus string

const (
	CardPending   CardStatus = "pending"
	CardResponded CardStatus = "responded"
	CardExpired   CardStatus = "expired"
)

// Виды карточек: подтверждение да/нет либо выбор из вариантов.
type CardKind string

const (
	CardConfirm CardKind = "confirm"
	CardSelect  CardKind = "select"
)

// Card — структурированный запрос к пользователю, встроенный в сообщение.
// Response выставляется единственным ответом пользователя; Reply — необязательный
// комментарий агента, он может появиться уже после ответа и статус не меняет.
type Card struct {
	ID          string     `json:"id"` // UUID
	MessageID   string     `json:"message_id"`
	Kind        CardKind   `json:"kind"`
	Prompt      string     `json:"prompt"`
	Options     []string   `json:"options,omitempty"` // только для select
	Status      CardStatus `json:"status"`
	Response    string     `json:"response,omitempty"`
	Reply       string     `json:"reply,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
