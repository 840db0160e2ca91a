package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/xela07ax/dashbot/internal/domain"
	"github.com/xela07ax/dashbot/internal/infra"
	"go.uber.org/zap"
)

type fakeChatRepo struct {
	sessions map[string]*domain.ChatSession // key -> session
	messages []domain.Message
	cards    map[string]*domain.Card
	cleared  []string
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		sessions: make(map[string]*domain.ChatSession),
		cards:    make(map[string]*domain.Card),
	}
}

func (r *fakeChatRepo) ListSessions(_ context.Context) ([]domain.ChatSession, error) {
	var out []domain.ChatSession
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeChatRepo) EnsureSession(_ context.Context, key, title string) (*domain.ChatSession, error) {
	if s, ok := r.sessions[key]; ok {
		return s, nil
	}
	s := &domain.ChatSession{ID: "sid-" + key, Key: key, Title: title}
	r.sessions[key] = s
	return s, nil
}

func (r *fakeChatRepo) GetSessionByKey(_ context.Context, key string) (*domain.ChatSession, error) {
	s, ok := r.sessions[key]
	if !ok {
		return nil, fmt.Errorf("%w: session %q", domain.ErrNotFound, key)
	}
	return s, nil
}

func (r *fakeChatRepo) InsertMessage(_ context.Context, m *domain.Message) error {
	r.messages = append(r.messages, *m)
	if m.Card != nil {
		card := *m.Card
		r.cards[card.ID] = &card
	}
	return nil
}

func (r *fakeChatRepo) ListMessages(_ context.Context, sessionID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) GetCard(_ context.Context, cardID string) (*domain.Card, error) {
	c, ok := r.cards[cardID]
	if !ok {
		return nil, fmt.Errorf("%w: card %q", domain.ErrNotFound, cardID)
	}
	return c, nil
}

func (r *fakeChatRepo) RespondCard(_ context.Context, cardID, response string) (*domain.Card, error) {
	c, ok := r.cards[cardID]
	if !ok {
		return nil, fmt.Errorf("%w: card %q", domain.ErrNotFound, cardID)
	}
	if c.Status != domain.CardPending {
		// Повтор: текущее состояние + конфликт, как делает настоящий репозиторий
		return c, fmt.Errorf("%w: card already responded", domain.ErrConflict)
	}
	c.Status = domain.CardResponded
	c.Response = response
	return c, nil
}

func (r *fakeChatRepo) AttachCardReply(_ context.Context, cardID, reply string) (*domain.Card, error) {
	c, ok := r.cards[cardID]
	if !ok {
		return nil, fmt.Errorf("%w: card %q", domain.ErrNotFound, cardID)
	}
	c.Reply = reply
	return c, nil
}

func (r *fakeChatRepo) SessionIDForMessage(_ context.Context, messageID string) (string, error) {
	for _, m := range r.messages {
		if m.ID == messageID {
			return m.SessionID, nil
		}
	}
	return "", fmt.Errorf("%w: message %q", domain.ErrNotFound, messageID)
}

func (r *fakeChatRepo) ClearMessages(_ context.Context, sessionID string) error {
	r.cleared = append(r.cleared, sessionID)
	return nil
}

func newTestChatService(repo *fakeChatRepo, pub *fakePublisher) *ChatService {
	return NewChatService(repo, pub, zap.NewNop())
}

// sendCardMessage заводит сессию и кладет в нее agent-сообщение с карточкой.
func sendCardMessage(t *testing.T, svc *ChatService, kind domain.CardKind, options []string) *domain.Message {
	t.Helper()
	m, err := svc.SendMessage(context.Background(), "agent:foo:main", domain.RoleAgent, "approve?", &NewCardInput{
		Kind:    kind,
		Prompt:  "Continue with the plan?",
		Options: options,
	})
	if err != nil {
		t.Fatalf("SendMessage with card: %v", err)
	}
	if m.Card == nil {
		t.Fatal("message has no card attached")
	}
	return m
}

func TestSendMessageBroadcasts(t *testing.T) {
	repo := newFakeChatRepo()
	pub := &fakePublisher{}
	svc := newTestChatService(repo, pub)

	m, err := svc.SendMessage(context.Background(), "agent:foo:main", domain.RoleUser, "hello", nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	frames := pub.frames()
	if len(frames) != 1 {
		t.Fatalf("published %d frames, want 1", len(frames))
	}
	wantChan := infra.ChatChannel(m.SessionID)
	if frames[0].channel != wantChan {
		t.Errorf("published to %s, want %s", frames[0].channel, wantChan)
	}
	if f, ok := frames[0].payload.(domain.MessageFrame); !ok || f.Type != domain.FrameMessage {
		t.Errorf("payload = %+v, want message frame", frames[0].payload)
	}
}

func TestSendMessageValidation(t *testing.T) {
	svc := newTestChatService(newFakeChatRepo(), &fakePublisher{})
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"empty session key", func() error {
			_, err := svc.SendMessage(ctx, "", domain.RoleUser, "hi", nil)
			return err
		}},
		{"empty body without card", func() error {
			_, err := svc.SendMessage(ctx, "s", domain.RoleUser, "", nil)
			return err
		}},
		{"unknown role", func() error {
			_, err := svc.SendMessage(ctx, "s", "robot", "hi", nil)
			return err
		}},
		{"card without prompt", func() error {
			_, err := svc.SendMessage(ctx, "s", domain.RoleAgent, "hi", &NewCardInput{Kind: domain.CardConfirm})
			return err
		}},
		{"select card without options", func() error {
			_, err := svc.SendMessage(ctx, "s", domain.RoleAgent, "hi", &NewCardInput{Kind: domain.CardSelect, Prompt: "pick"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestRespondCardOnce(t *testing.T) {
	repo := newFakeChatRepo()
	pub := &fakePublisher{}
	svc := newTestChatService(repo, pub)

	m := sendCardMessage(t, svc, domain.CardConfirm, nil)
	before := len(pub.frames())

	card, err := svc.RespondCard(context.Background(), m.Card.ID, "yes")
	if err != nil {
		t.Fatalf("first RespondCard: %v", err)
	}
	if card.Status != domain.CardResponded || card.Response != "yes" {
		t.Errorf("card = %+v, want responded with yes", card)
	}
	if got := len(pub.frames()); got != before+1 {
		t.Fatalf("published %d frames after respond, want %d", got, before+1)
	}

	// Вторая попытка: конфликт + актуальное состояние, без нового broadcast-а
	current, err := svc.RespondCard(context.Background(), m.Card.ID, "no")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second RespondCard err = %v, want conflict", err)
	}
	if current == nil || current.Response != "yes" {
		t.Errorf("conflict returned %+v, want current card with response yes", current)
	}
	if got := len(pub.frames()); got != before+1 {
		t.Errorf("conflict produced extra broadcast: %d frames, want %d", got, before+1)
	}
}

func TestRespondCardEmptyResponse(t *testing.T) {
	svc := newTestChatService(newFakeChatRepo(), &fakePublisher{})
	if _, err := svc.RespondCard(context.Background(), "any", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAttachReplyKeepsStatus(t *testing.T) {
	repo := newFakeChatRepo()
	pub := &fakePublisher{}
	svc := newTestChatService(repo, pub)

	m := sendCardMessage(t, svc, domain.CardConfirm, nil)
	if _, err := svc.RespondCard(context.Background(), m.Card.ID, "yes"); err != nil {
		t.Fatalf("RespondCard: %v", err)
	}

	card, err := svc.AttachReply(context.Background(), m.Card.ID, "done, deployed")
	if err != nil {
		t.Fatalf("AttachReply: %v", err)
	}
	if card.Status != domain.CardResponded {
		t.Errorf("reply changed status to %s", card.Status)
	}
	if card.Reply != "done, deployed" {
		t.Errorf("Reply = %q", card.Reply)
	}
}

func TestListSessionsNeverNull(t *testing.T) {
	svc := newTestChatService(newFakeChatRepo(), &fakePublisher{})
	sessions, err := svc.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if sessions == nil {
		t.Fatal("ListSessions returned nil, want empty slice")
	}
}

func TestClearBroadcastsFrame(t *testing.T) {
	repo := newFakeChatRepo()
	pub := &fakePublisher{}
	svc := newTestChatService(repo, pub)

	if _, err := svc.SendMessage(context.Background(), "s1", domain.RoleUser, "hi", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	before := len(pub.frames())

	if err := svc.Clear(context.Background(), "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(repo.cleared) != 1 {
		t.Fatalf("cleared %d sessions, want 1", len(repo.cleared))
	}
	frames := pub.frames()
	if len(frames) != before+1 {
		t.Fatalf("published %d frames, want %d", len(frames), before+1)
	}
	if f, ok := frames[len(frames)-1].payload.(domain.ClearFrame); !ok || f.Type != domain.FrameClear {
		t.Errorf("payload = %+v, want clear frame", frames[len(frames)-1].payload)
	}
}
