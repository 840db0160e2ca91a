package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/dashbot/internal/console/service"
	"github.com/xela07ax/dashbot/internal/domain"
)

// Максимальный размер пуша плагина: статусы и события — килобайты,
// мегабайтный payload означает сломанный продюсер.
const maxPushBody = 1 << 20

// PluginStatusSink Описываем, что нам нужно от сервиса статуса
type PluginStatusSink interface {
	Push(ctx context.Context, payload json.RawMessage)
}

// PluginEventSink Описываем, что нам нужно от журнала
type PluginEventSink interface {
	Append(ctx context.Context, e *domain.AgentEvent) error
}

// PluginChatSink — входящие сообщения/ответы агента в чат
type PluginChatSink interface {
	SendMessage(ctx context.Context, sessionKey, role, body string, card *service.NewCardInput) (*domain.Message, error)
	AttachReply(ctx context.Context, cardID, reply string) (*domain.Card, error)
}

// PluginHandler обслуживает пуши внешнего агента (bearer-периметр).
type PluginHandler struct {
	status PluginStatusSink
	events PluginEventSink
	chat   PluginChatSink
}

func NewPluginHandler(status PluginStatusSink, events PluginEventSink, chat PluginChatSink) *PluginHandler {
	return &PluginHandler{status: status, events: events, chat: chat}
}

// PushStatus принимает произвольный JSON-объект статуса.
// POST /api/plugin/status
func (h *PluginHandler) PushStatus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPushBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	// Именно объект: массив или скаляр сломали бы дефолт-контракт статуса
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		writeError(w, fmt.Errorf("%w: body must be a JSON object", domain.ErrValidation))
		return
	}

	h.status.Push(r.Context(), body)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}

type pushEventRequest struct {
	EventType   string                 `json:"event_type"`
	AgentLabel  string                 `json:"agent_label"`
	SessionKey  string                 `json:"session_key"`
	Model       string                 `json:"model"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// PushEvent принимает событие жизненного цикла, отдает созданную запись
// либо ошибку валидации со списком допустимых типов.
// POST /api/plugin/events
func (h *PluginHandler) PushEvent(w http.ResponseWriter, r *http.Request) {
	var req pushEventRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPushBody)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	event := &domain.AgentEvent{
		EventType:   domain.EventType(req.EventType),
		AgentLabel:  req.AgentLabel,
		SessionKey:  req.SessionKey,
		Model:       req.Model,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if err := h.events.Append(r.Context(), event); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

type pushMessageRequest struct {
	Body string                `json:"body"`
	Card *service.NewCardInput `json:"card,omitempty"`
}

// PushMessage — ответ агента в чат (с карточкой, если агент спрашивает).
// POST /api/plugin/sessions/{sessionKey}/messages
func (h *PluginHandler) PushMessage(w http.ResponseWriter, r *http.Request) {
	sessionKey := chi.URLParam(r, "sessionKey")

	var req pushMessageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPushBody)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.chat.SendMessage(r.Context(), sessionKey, domain.RoleAgent, req.Body, req.Card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type cardReplyRequest struct {
	Reply string `json:"reply"`
}

// AttachCardReply — комментарий агента к уже отвеченной карточке.
// POST /api/plugin/cards/{cardID}/reply
func (h *PluginHandler) AttachCardReply(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	var req cardReplyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPushBody)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	card, err := h.chat.AttachReply(r.Context(), cardID, req.Reply)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
