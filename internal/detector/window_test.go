package detector

import (
	"testing"
	"time"

	"github.com/sentinelops/triage/internal/domain/event"
)

func ev(entityID string, ts time.Time) event.Event {
	return event.Event{
		EntityID:   entityID,
		EntityKind: event.KindUser,
		Type:       event.TypeLoginFailed,
		Timestamp:  ts,
	}
}

func TestWindow_RecentRespectsWindow(t *testing.T) {
	w, err := NewWindow(10*time.Minute, 100)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()

	w.Add(ev("user-1", now.Add(-15*time.Minute)))
	w.Add(ev("user-1", now.Add(-5*time.Minute)))
	w.Add(ev("user-1", now.Add(-1*time.Minute)))

	got := w.Recent("user-1", now)
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d events, want 2", len(got))
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Error("Recent() events not oldest first")
	}
}

func TestWindow_PruningUsesEventTime(t *testing.T) {
	w, _ := NewWindow(10*time.Minute, 100)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	w.Add(ev("user-1", base))
	// An event 20 minutes later prunes the first on insert
	w.Add(ev("user-1", base.Add(20*time.Minute)))

	if got := w.Recent("user-1", base.Add(20*time.Minute)); len(got) != 1 {
		t.Fatalf("Recent() returned %d events, want 1", len(got))
	}

	// Asking at the original time excludes the future event
	if got := w.Recent("user-1", base); len(got) != 0 {
		t.Fatalf("Recent() at earlier time returned %d events, want 0", len(got))
	}
}

func TestWindow_UnknownEntity(t *testing.T) {
	w, _ := NewWindow(10*time.Minute, 100)
	if got := w.Recent("nobody", time.Now()); got != nil {
		t.Errorf("Recent() for unknown entity = %v, want nil", got)
	}
}

func TestWindow_LRUEviction(t *testing.T) {
	w, _ := NewWindow(time.Hour, 2)
	now := time.Now()

	w.Add(ev("user-1", now))
	w.Add(ev("user-2", now))
	w.Add(ev("user-3", now))

	if got := w.Recent("user-1", now); got != nil {
		t.Error("oldest entity should have been evicted")
	}
	if got := w.Recent("user-3", now); len(got) != 1 {
		t.Error("newest entity missing after eviction")
	}
}

func TestWindow_Stats(t *testing.T) {
	w, _ := NewWindow(time.Hour, 10)
	now := time.Now()
	w.Add(ev("user-1", now))
	w.Add(ev("user-1", now))
	w.Add(ev("user-2", now))

	stats := w.Stats()
	if stats["entity_count"] != 2 {
		t.Errorf("entity_count = %v, want 2", stats["entity_count"])
	}
	if stats["total_events"] != 3 {
		t.Errorf("total_events = %v, want 3", stats["total_events"])
	}
}
