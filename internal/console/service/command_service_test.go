package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xela07ax/dashbot/internal/domain"
	"go.uber.org/zap"
)

type fakeSink struct {
	mu   sync.Mutex
	sent []domain.CommandMessage
}

func (f *fakeSink) Send(_ context.Context, cmd domain.CommandMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeSink) all() []domain.CommandMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CommandMessage{}, f.sent...)
}

func TestKillSessionGuard(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		wantErr  error
		wantEmit bool
	}{
		{"literal main", "main", domain.ErrForbidden, false},
		{"main session key", "agent:foo:main", domain.ErrForbidden, false},
		{"another agent main", "agent:whatsapp:main", domain.ErrForbidden, false},
		{"subagent session", "agent:foo:subagent:xyz", nil, true},
		{"two segments", "agent:main", nil, true},
		{"main not last", "agent:main:other", nil, true},
		{"first not agent", "bot:foo:main", nil, true},
		{"empty key", "", domain.ErrValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{}
			svc := NewCommandService(sink, zap.NewNop())

			err := svc.KillSession(context.Background(), tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("KillSession(%q) err = %v, want %v", tt.key, err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("KillSession(%q) unexpected err: %v", tt.key, err)
			}

			sent := sink.all()
			if tt.wantEmit {
				if len(sent) != 1 {
					t.Fatalf("emitted %d commands, want exactly 1", len(sent))
				}
				if sent[0].Kind != domain.CmdSessionKill || sent[0].SessionKey != tt.key {
					t.Errorf("emitted %+v, want session_kill for %q", sent[0], tt.key)
				}
			} else if len(sent) != 0 {
				t.Errorf("emitted %d commands, want none", len(sent))
			}
		})
	}
}

func TestCronCommands(t *testing.T) {
	sink := &fakeSink{}
	svc := NewCommandService(sink, zap.NewNop())
	ctx := context.Background()

	if err := svc.RunCron(ctx, "job-1"); err != nil {
		t.Fatalf("RunCron: %v", err)
	}
	if err := svc.EnableCron(ctx, "job-1"); err != nil {
		t.Fatalf("EnableCron: %v", err)
	}
	if err := svc.DisableCron(ctx, "job-1"); err != nil {
		t.Fatalf("DisableCron: %v", err)
	}

	sent := sink.all()
	want := []domain.CommandKind{domain.CmdCronRun, domain.CmdCronEnable, domain.CmdCronDisable}
	if len(sent) != len(want) {
		t.Fatalf("emitted %d commands, want %d", len(sent), len(want))
	}
	for i, kind := range want {
		if sent[i].Kind != kind || sent[i].JobID != "job-1" {
			t.Errorf("command %d = %+v, want %s for job-1", i, sent[i], kind)
		}
	}
}

func TestCronEmptyJobID(t *testing.T) {
	sink := &fakeSink{}
	svc := NewCommandService(sink, zap.NewNop())

	if err := svc.RunCron(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("RunCron(\"\") err = %v, want validation error", err)
	}
	if len(sink.all()) != 0 {
		t.Error("validation failure must not emit commands")
	}
}
