package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xela07ax/dashbot/internal/broker"
	"github.com/xela07ax/dashbot/internal/domain"
	"go.uber.org/zap"
)

// CommandService — продюсеры Command Bus: cron-операции и kill сессий.
// Каждая операция эмитит ровно одно сообщение и возвращается сразу,
// не дожидаясь эффекта на стороне агента. Повторный вызов безопасен —
// просто уйдет еще одна команда.
type CommandService struct {
	bus    broker.CommandSink
	logger *zap.Logger
}

func NewCommandService(bus broker.CommandSink, logger *zap.Logger) *CommandService {
	return &CommandService{
		bus:    bus,
		logger: logger.Named("command-service"),
	}
}

func (s *CommandService) RunCron(ctx context.Context, jobID string) error {
	if jobID == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrValidation)
	}
	return s.bus.Send(ctx, domain.NewCronRunCommand(jobID))
}

func (s *CommandService) EnableCron(ctx context.Context, jobID string) error {
	if jobID == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrValidation)
	}
	return s.bus.Send(ctx, domain.NewCronEnableCommand(jobID))
}

func (s *CommandService) DisableCron(ctx context.Context, jobID string) error {
	if jobID == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrValidation)
	}
	return s.bus.Send(ctx, domain.NewCronDisableCommand(jobID))
}

// KillSession эмитит session_kill, предварительно отбраковывая основную
// сессию агента — единственную, потерю которой агент не переживает.
func (s *CommandService) KillSession(ctx context.Context, sessionKey string) error {
	if sessionKey == "" {
		return fmt.Errorf("%w: session key is required", domain.ErrValidation)
	}
	if IsProtectedSessionKey(sessionKey) {
		s.logger.Warn("kill of protected session rejected", zap.String("session_key", sessionKey))
		return fmt.Errorf("%w: session %q is the agent's main session", domain.ErrForbidden, sessionKey)
	}
	return s.bus.Send(ctx, domain.NewSessionKillCommand(sessionKey))
}

// IsProtectedSessionKey распознает основную сессию агента: литеральный
// "main" либо ровно три сегмента через двоеточие, где первый — "agent",
// а последний — "main" (например "agent:foo:main").
func IsProtectedSessionKey(key string) bool {
	if key == "main" {
		return true
	}
	parts := strings.Split(key, ":")
	return len(parts) == 3 && parts[0] == "agent" && parts[2] == "main"
}
