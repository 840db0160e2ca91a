package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/xela07ax/dashbot/internal/domain"
	"github.com/xela07ax/dashbot/internal/subagents"
)

// EventReader Описываем, что нам нужно от журнала для чтения
type EventReader interface {
	Recent(ctx context.Context, f domain.EventFilter) ([]domain.AgentEvent, error)
	Subagents(ctx context.Context) ([]subagents.Entry, error)
}

// StatusReader отдает последний снапшот статуса (или дефолт).
type StatusReader interface {
	Read() json.RawMessage
}

// DashboardHandler — read-only срез для виджетов дашборда.
type DashboardHandler struct {
	events EventReader
	status StatusReader
}

func NewDashboardHandler(events EventReader, status StatusReader) *DashboardHandler {
	return &DashboardHandler{events: events, status: status}
}

// GetStatus возвращает кэшированный статус агента.
// GET /api/status
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(h.status.Read())
}

// GetEvents возвращает журнал с фильтрацией.
// GET /api/events?limit=...&since=RFC3339&type=...
func (h *DashboardHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	var f domain.EventFilter

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		f.Limit = limit
	}
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "since must be RFC3339", http.StatusBadRequest)
			return
		}
		f.Since = since
	}
	f.TypeValue = domain.EventType(r.URL.Query().Get("type"))

	events, err := h.events.Recent(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// GetSubagents — производное представление "живых сабагентов".
// GET /api/subagents
func (h *DashboardHandler) GetSubagents(w http.ResponseWriter, r *http.Request) {
	entries, err := h.events.Subagents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subagents": entries})
}
