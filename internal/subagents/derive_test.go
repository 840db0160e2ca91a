package subagents

import (
	"testing"
	"time"

	"github.com/xela07ax/dashbot/internal/domain"
)

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func spawned(id int64, label string, at time.Time) domain.AgentEvent {
	return domain.AgentEvent{
		ID:         id,
		EventType:  domain.EventSubagentSpawned,
		AgentLabel: label,
		CreatedAt:  at,
	}
}

func completed(id int64, label string, at time.Time, duration float64) domain.AgentEvent {
	return domain.AgentEvent{
		ID:         id,
		EventType:  domain.EventSubagentCompleted,
		AgentLabel: label,
		CreatedAt:  at,
		Metadata:   map[string]interface{}{"duration": duration, "result": "ok"},
	}
}

func TestSpawnThenComplete(t *testing.T) {
	events := []domain.AgentEvent{
		spawned(1, "A", t0),
		completed(2, "A", t0.Add(10*time.Second), 5),
	}

	entries := Derive(events)
	if len(entries) != 1 {
		t.Fatalf("Derive returned %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Label != "A" || e.Status != StatusCompleted {
		t.Errorf("entry = %+v, want label A completed", e)
	}
	if e.DurationSec != 5 {
		t.Errorf("DurationSec = %v, want 5", e.DurationSec)
	}
	if e.Result != "ok" {
		t.Errorf("Result = %q, want ok", e.Result)
	}
}

func TestArrivalOrderIrrelevant(t *testing.T) {
	// Терминальное событие пришло раньше spawn — результат тот же
	events := []domain.AgentEvent{
		completed(2, "A", t0.Add(10*time.Second), 5),
		spawned(1, "A", t0),
	}

	entries := Derive(events)
	if len(entries) != 1 || entries[0].Status != StatusCompleted {
		t.Fatalf("Derive with reversed input = %+v, want A completed", entries)
	}
}

func TestReplayIdempotent(t *testing.T) {
	events := []domain.AgentEvent{
		spawned(1, "A", t0),
		completed(2, "A", t0.Add(10*time.Second), 5),
	}
	// Журнал, примененный дважды, дает тот же результат
	duplicated := append(append([]domain.AgentEvent{}, events...), events...)

	once := Derive(events)
	twice := Derive(duplicated)

	if len(once) != len(twice) {
		t.Fatalf("replay changed entry count: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("entry %d diverged under replay: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestFailedAndTimeoutTerminals(t *testing.T) {
	events := []domain.AgentEvent{
		spawned(1, "A", t0),
		spawned(2, "B", t0),
		{ID: 3, EventType: domain.EventSubagentFailed, AgentLabel: "A",
			CreatedAt: t0.Add(time.Minute),
			Metadata:  map[string]interface{}{"error": "boom"}},
		{ID: 4, EventType: domain.EventSubagentTimeout, AgentLabel: "B",
			CreatedAt: t0.Add(2 * time.Minute)},
	}

	entries := Derive(events)
	if len(entries) != 2 {
		t.Fatalf("Derive returned %d entries, want 2", len(entries))
	}
	if entries[0].Status != StatusFailed || entries[0].Error != "boom" {
		t.Errorf("A = %+v, want failed with error boom", entries[0])
	}
	if entries[1].Status != StatusTimeout {
		t.Errorf("B = %+v, want timeout", entries[1])
	}
}

func TestRunningFilter(t *testing.T) {
	events := []domain.AgentEvent{
		spawned(1, "A", t0),
		spawned(2, "B", t0.Add(time.Second)),
		completed(3, "A", t0.Add(time.Minute), 60),
	}

	running := Running(events)
	if len(running) != 1 || running[0].Label != "B" {
		t.Fatalf("Running = %+v, want only B", running)
	}
}

func TestTerminalWithoutSpawnIgnored(t *testing.T) {
	// Обрезанный журнал: completed есть, spawn уже вычищен
	events := []domain.AgentEvent{
		completed(10, "orphan", t0, 1),
	}
	if entries := Derive(events); len(entries) != 0 {
		t.Fatalf("Derive = %+v, want empty", entries)
	}
}
