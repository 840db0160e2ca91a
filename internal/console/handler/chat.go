package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/dashbot/internal/console/service"
	"github.com/xela07ax/dashbot/internal/domain"
)

// Chatter Описываем, что нам нужно от чат-сервиса
type Chatter interface {
	ListSessions(ctx context.Context) ([]domain.ChatSession, error)
	History(ctx context.Context, sessionKey string, limit int) ([]domain.Message, error)
	SendMessage(ctx context.Context, sessionKey, role, body string, card *service.NewCardInput) (*domain.Message, error)
	RespondCard(ctx context.Context, cardID, response string) (*domain.Card, error)
	Clear(ctx context.Context, sessionKey string) error
}

// ChatHandler — браузерный периметр чата.
type ChatHandler struct {
	service Chatter
}

func NewChatHandler(s Chatter) *ChatHandler {
	return &ChatHandler{service: s}
}

// GET /api/chat/sessions
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// GET /api/chat/sessions/{sessionKey}/messages?limit=...
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.service.History(r.Context(), chi.URLParam(r, "sessionKey"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

// POST /api/chat/sessions/{sessionKey}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.service.SendMessage(r.Context(), chi.URLParam(r, "sessionKey"), domain.RoleUser, req.Body, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type respondCardRequest struct {
	Response string `json:"response"`
}

// POST /api/chat/cards/{cardID}/respond
// Повторный ответ получает 409 с актуальным состоянием карточки.
func (h *ChatHandler) RespondCard(w http.ResponseWriter, r *http.Request) {
	var req respondCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	card, err := h.service.RespondCard(r.Context(), chi.URLParam(r, "cardID"), req.Response)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeErrorState(w, err, card)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DELETE /api/chat/sessions/{sessionKey}/messages
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), chi.URLParam(r, "sessionKey")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
