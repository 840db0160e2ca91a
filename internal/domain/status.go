package domain

import "time"

// StatusPayload — слепок состояния внешнего агента, который плагин
// пушит на дашборд. Форму определяет продюсер (OpenClaw-плагин),
// мы храним и раздаем её как есть, без merge-семантики.
type StatusPayload struct {
	Agent     AgentStatusInfo          `json:"agent"`
	Tokens    TokenUsage               `json:"tokens"`
	Tasks     []map[string]interface{} `json:"tasks"`
	Memory    MemoryStats              `json:"memory"`
	Sessions  []SessionInfo            `json:"sessions"`
	Timestamp time.Time                `json:"timestamp"`
}

type AgentStatusInfo struct {
	State string `json:"state"` // idle | working | error
	Model string `json:"model"`
}

type TokenUsage struct {
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
}

type MemoryStats struct {
	Files      int   `json:"files"`
	TotalBytes int64 `json:"total_bytes"`
}

type SessionInfo struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Model     string    `json:"model"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultStatusPayload возвращает структурно-полный объект с нулевыми
// значениями. Фронтенд никогда не различает "нет данных" и "пустые данные" —
// он всегда получает все ожидаемые поля.
func DefaultStatusPayload() StatusPayload {
	return StatusPayload{
		Agent:    AgentStatusInfo{State: "offline"},
		Tasks:    []map[string]interface{}{},
		Sessions: []SessionInfo{},
	}
}
