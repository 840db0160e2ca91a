package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xela07ax/dashbot/internal/console/service"
	"github.com/xela07ax/dashbot/internal/domain"
)

type fakeStatusSink struct {
	pushed []json.RawMessage
}

func (s *fakeStatusSink) Push(_ context.Context, payload json.RawMessage) {
	s.pushed = append(s.pushed, payload)
}

type nopEventSink struct{}

func (nopEventSink) Append(context.Context, *domain.AgentEvent) error { return nil }

type nopChatSink struct{}

func (nopChatSink) SendMessage(context.Context, string, string, string, *service.NewCardInput) (*domain.Message, error) {
	return &domain.Message{}, nil
}

func (nopChatSink) AttachReply(context.Context, string, string) (*domain.Card, error) {
	return &domain.Card{}, nil
}

func TestPushStatusAcceptsObjectsOnly(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantPushed bool
	}{
		{"object", `{"agent":{"state":"working"}}`, http.StatusAccepted, true},
		{"empty object", `{}`, http.StatusAccepted, true},
		{"array", `[1,2]`, http.StatusUnprocessableEntity, false},
		{"string", `"hi"`, http.StatusUnprocessableEntity, false},
		{"number", `42`, http.StatusUnprocessableEntity, false},
		{"null", `null`, http.StatusUnprocessableEntity, false},
		{"broken json", `{"agent":`, http.StatusUnprocessableEntity, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeStatusSink{}
			h := NewPluginHandler(sink, nopEventSink{}, nopChatSink{})

			req := httptest.NewRequest(http.MethodPost, "/api/plugin/status", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.PushStatus(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantPushed {
				if len(sink.pushed) != 1 || string(sink.pushed[0]) != tt.body {
					t.Errorf("pushed %v, want exactly the raw body", sink.pushed)
				}
			} else if len(sink.pushed) != 0 {
				t.Errorf("rejected payload reached the cache: %v", sink.pushed)
			}
		})
	}
}
