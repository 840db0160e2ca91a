package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Commander Описываем, что нам нужно от продюсеров Command Bus
type Commander interface {
	RunCron(ctx context.Context, jobID string) error
	EnableCron(ctx context.Context, jobID string) error
	DisableCron(ctx context.Context, jobID string) error
	KillSession(ctx context.Context, sessionKey string) error
}

// CommandHandler превращает клики дашборда в команды плагину.
// Повторный клик безопасен: уйдет просто еще одна команда.
type CommandHandler struct {
	service Commander
}

func NewCommandHandler(s Commander) *CommandHandler {
	return &CommandHandler{service: s}
}

// POST /api/cron/{jobID}/run
func (h *CommandHandler) RunCron(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RunCron(r.Context(), chi.URLParam(r, "jobID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// POST /api/cron/{jobID}/enable
func (h *CommandHandler) EnableCron(w http.ResponseWriter, r *http.Request) {
	if err := h.service.EnableCron(r.Context(), chi.URLParam(r, "jobID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// POST /api/cron/{jobID}/disable
func (h *CommandHandler) DisableCron(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DisableCron(r.Context(), chi.URLParam(r, "jobID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// DELETE /api/sessions/{sessionKey}
// Основная сессия агента защищена — на неё вернется 403.
func (h *CommandHandler) KillSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.KillSession(r.Context(), chi.URLParam(r, "sessionKey")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
