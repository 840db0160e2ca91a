package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xela07ax/dashbot/internal/domain"
	"github.com/xela07ax/dashbot/internal/infra"
	"github.com/xela07ax/dashbot/internal/subagents"
	"go.uber.org/zap"
)

// fakePublisher запоминает, в какие топики что улетело.
type fakePublisher struct {
	mu        sync.Mutex
	published []publishedFrame
	fail      bool
}

type publishedFrame struct {
	channel string
	payload interface{}
}

func (p *fakePublisher) Publish(_ context.Context, channel string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.published = append(p.published, publishedFrame{channel: channel, payload: payload})
	return nil
}

func (p *fakePublisher) frames() []publishedFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedFrame{}, p.published...)
}

type fakeEventRepo struct {
	inserted   []domain.AgentEvent
	lastFilter domain.EventFilter
	recent     []domain.AgentEvent
	pruned     int
	deleted    int64
}

func (r *fakeEventRepo) InsertEvent(_ context.Context, e *domain.AgentEvent) error {
	e.ID = int64(len(r.inserted) + 1)
	r.inserted = append(r.inserted, *e)
	return nil
}

func (r *fakeEventRepo) RecentEvents(_ context.Context, f domain.EventFilter) ([]domain.AgentEvent, error) {
	r.lastFilter = f
	// recent хранится от новых к старым, как отдает настоящий репозиторий
	if f.Limit > 0 && f.Limit < len(r.recent) {
		return r.recent[:f.Limit], nil
	}
	return r.recent, nil
}

func (r *fakeEventRepo) PruneEvents(_ context.Context, keep int) (int64, error) {
	r.pruned = keep
	return r.deleted, nil
}

func newTestEventService(repo *fakeEventRepo, pub *fakePublisher) *EventService {
	return NewEventService(repo, pub, zap.NewNop(), infra.NewMetrics(nil), 500)
}

func TestAppendValidEvent(t *testing.T) {
	repo := &fakeEventRepo{}
	pub := &fakePublisher{}
	svc := newTestEventService(repo, pub)

	e := &domain.AgentEvent{
		EventType:  domain.EventSubagentSpawned,
		AgentLabel: "worker",
	}
	if err := svc.Append(context.Background(), e); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d events, want 1", len(repo.inserted))
	}
	frames := pub.frames()
	if len(frames) != 1 || frames[0].channel != infra.RedisChanEvents {
		t.Fatalf("published %+v, want one frame on %s", frames, infra.RedisChanEvents)
	}
	if f, ok := frames[0].payload.(domain.EventFrame); !ok || f.Type != domain.FrameNewEvent {
		t.Errorf("payload = %+v, want new_event frame", frames[0].payload)
	}
}

func TestAppendBogusTypeRejected(t *testing.T) {
	repo := &fakeEventRepo{}
	pub := &fakePublisher{}
	svc := newTestEventService(repo, pub)

	e := &domain.AgentEvent{EventType: domain.EventType("agent_exploded")}
	err := svc.Append(context.Background(), e)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Append(bogus) err = %v, want validation error", err)
	}
	if len(repo.inserted) != 0 {
		t.Error("bogus event must not be persisted")
	}
	if len(pub.frames()) != 0 {
		t.Error("bogus event must not be broadcast")
	}
}

func TestAppendSurvivesBroadcastFailure(t *testing.T) {
	repo := &fakeEventRepo{}
	pub := &fakePublisher{fail: true}
	svc := newTestEventService(repo, pub)

	e := &domain.AgentEvent{EventType: domain.EventCronExecuted}
	if err := svc.Append(context.Background(), e); err != nil {
		t.Fatalf("Append with dead broker: %v, want nil", err)
	}
	if len(repo.inserted) != 1 {
		t.Error("event must stay persisted despite broadcast failure")
	}
}

func TestRecentClampsLimit(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"over the cap", 500, MaxRecentLimit},
		{"at the cap", 100, 100},
		{"under the cap", 10, 10},
		{"zero gets default", 0, defaultRecentLimit},
		{"negative gets default", -1, defaultRecentLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeEventRepo{}
			svc := newTestEventService(repo, &fakePublisher{})

			if _, err := svc.Recent(context.Background(), domain.EventFilter{Limit: tt.requested}); err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if repo.lastFilter.Limit != tt.want {
				t.Errorf("repo saw limit %d, want %d", repo.lastFilter.Limit, tt.want)
			}
		})
	}
}

func TestRecentRejectsBogusTypeFilter(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := newTestEventService(repo, &fakePublisher{})

	_, err := svc.Recent(context.Background(), domain.EventFilter{TypeValue: domain.EventType("nope")})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Recent(bogus filter) err = %v, want validation error", err)
	}
}

func TestSubagentsFoldSpansRetention(t *testing.T) {
	// Журнал от новых к старым: 149 cron-событий поверх единственного
	// spawn-а. Spawn выпадает из клиентского клампа чтения (100), но
	// остается в окне ретенции — свертка обязана его видеть.
	repo := &fakeEventRepo{}
	now := time.Now()
	for id := int64(150); id >= 2; id-- {
		repo.recent = append(repo.recent, domain.AgentEvent{
			ID:        id,
			EventType: domain.EventCronExecuted,
			CreatedAt: now.Add(time.Duration(id) * time.Second),
		})
	}
	repo.recent = append(repo.recent, domain.AgentEvent{
		ID:         1,
		EventType:  domain.EventSubagentSpawned,
		AgentLabel: "A",
		CreatedAt:  now,
	})

	svc := newTestEventService(repo, &fakePublisher{})
	entries, err := svc.Subagents(context.Background())
	if err != nil {
		t.Fatalf("Subagents: %v", err)
	}

	if repo.lastFilter.Limit != 500 {
		t.Errorf("fold fetched with limit %d, want retention window 500", repo.lastFilter.Limit)
	}
	if len(entries) != 1 {
		t.Fatalf("Subagents = %+v, want single running entry for A", entries)
	}
	if entries[0].Label != "A" || entries[0].Status != subagents.StatusRunning {
		t.Errorf("entry = %+v, want A running", entries[0])
	}
}

func TestPrunePassesKeep(t *testing.T) {
	repo := &fakeEventRepo{deleted: 42}
	svc := newTestEventService(repo, &fakePublisher{})

	if err := svc.Prune(context.Background()); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if repo.pruned != 500 {
		t.Errorf("PruneEvents got keep=%d, want 500", repo.pruned)
	}
}
