package subagents

import (
	"sort"
	"time"

	"github.com/xela07ax/dashbot/internal/domain"
)

// Единственная каноническая свертка "живых сабагентов" из сырого журнала.
// Все потребители делят одну функцию — реплей журнала не может разъехаться
// между представлениями.

// Status сабагента в производном представлении.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
)

// Entry — состояние одного сабагента, вычисленное из журнала.
type Entry struct {
	Label      string    `json:"label"`
	Status     Status    `json:"status"`
	Model      string    `json:"model,omitempty"`
	SessionKey string    `json:"session_key,omitempty"`
	SpawnedAt  time.Time `json:"spawned_at"`
	EndedAt    time.Time `json:"ended_at,omitzero"`

	// Из metadata терминального события
	DurationSec float64 `json:"duration_sec,omitempty"`
	Result      string  `json:"result,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// terminal маппит тип события на терминальный статус записи.
func terminal(t domain.EventType) (Status, bool) {
	switch t {
	case domain.EventSubagentCompleted:
		return StatusCompleted, true
	case domain.EventSubagentFailed:
		return StatusFailed, true
	case domain.EventSubagentTimeout:
		return StatusTimeout, true
	}
	return "", false
}

// Derive сворачивает события от старых к новым per agent_label:
// subagent_spawned открывает запись в статусе running, более позднее
// терминальное событие той же метки закрывает её и переносит
// duration/result/error из metadata.
//
// Свертка чистая и идемпотентна при повторе: события сперва
// дедуплицируются по id, поэтому дважды примененный журнал дает
// тот же результат. Порядок прихода неважен — сортируем сами.
func Derive(events []domain.AgentEvent) []Entry {
	// 1. Дедупликация по id (replay-защита)
	seen := make(map[int64]struct{}, len(events))
	unique := make([]domain.AgentEvent, 0, len(events))
	for _, e := range events {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		unique = append(unique, e)
	}

	// 2. От старых к новым. При равном времени решает id — он монотонный.
	sort.Slice(unique, func(i, j int) bool {
		if unique[i].CreatedAt.Equal(unique[j].CreatedAt) {
			return unique[i].ID < unique[j].ID
		}
		return unique[i].CreatedAt.Before(unique[j].CreatedAt)
	})

	// 3. Свертка per label
	byLabel := make(map[string]*Entry)
	order := make([]string, 0)

	for _, e := range unique {
		if e.AgentLabel == "" {
			continue
		}

		switch {
		case e.EventType == domain.EventSubagentSpawned:
			if _, exists := byLabel[e.AgentLabel]; !exists {
				order = append(order, e.AgentLabel)
			}
			// Повторный spawn той же метки открывает запись заново
			byLabel[e.AgentLabel] = &Entry{
				Label:      e.AgentLabel,
				Status:     StatusRunning,
				Model:      e.Model,
				SessionKey: e.SessionKey,
				SpawnedAt:  e.CreatedAt,
			}

		default:
			st, isTerminal := terminal(e.EventType)
			if !isTerminal {
				continue
			}
			entry, exists := byLabel[e.AgentLabel]
			if !exists || entry.Status != StatusRunning {
				// Терминал без открытой записи — журнал обрезан, пропускаем
				continue
			}
			entry.Status = st
			entry.EndedAt = e.CreatedAt
			if e.Metadata != nil {
				if d, ok := e.Metadata["duration"].(float64); ok {
					entry.DurationSec = d
				}
				if r, ok := e.Metadata["result"].(string); ok {
					entry.Result = r
				}
				if errMsg, ok := e.Metadata["error"].(string); ok {
					entry.Error = errMsg
				}
			}
		}
	}

	result := make([]Entry, 0, len(order))
	for _, label := range order {
		result = append(result, *byLabel[label])
	}
	return result
}

// Running возвращает только незавершенные записи свертки.
func Running(events []domain.AgentEvent) []Entry {
	all := Derive(events)
	running := make([]Entry, 0, len(all))
	for _, e := range all {
		if e.Status == StatusRunning {
			running = append(running, e)
		}
	}
	return running
}
