package detector

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sentinelops/triage/internal/domain/event"
)

// Window maintains a bounded per-entity buffer of recent events. Entity
// buffers are evicted LRU so a noisy fleet cannot grow memory without
// bound; within a buffer, events older than maxAge are pruned on insert.
// Pruning uses event timestamps, not the wall clock, so evaluation stays
// deterministic for a given input.
type Window struct {
	mu       sync.RWMutex
	entities *lru.Cache[string, *entityBuffer]
	maxAge   time.Duration
}

type entityBuffer struct {
	mu     sync.RWMutex
	events []event.Event
}

// NewWindow creates a window keeping events for maxAge across at most
// maxEntities entities
func NewWindow(maxAge time.Duration, maxEntities int) (*Window, error) {
	cache, err := lru.New[string, *entityBuffer](maxEntities)
	if err != nil {
		return nil, err
	}
	return &Window{entities: cache, maxAge: maxAge}, nil
}

// Add appends an event to its entity's buffer and prunes expired entries
func (w *Window) Add(ev event.Event) {
	if ev.EntityID == "" {
		return
	}

	w.mu.Lock()
	buf, ok := w.entities.Get(ev.EntityID)
	if !ok {
		buf = &entityBuffer{}
		w.entities.Add(ev.EntityID, buf)
	}
	w.mu.Unlock()

	cutoff := ev.Timestamp.Add(-w.maxAge)

	buf.mu.Lock()
	defer buf.mu.Unlock()

	// Events arrive in order per entity; drop the expired prefix
	i := 0
	for i < len(buf.events) && buf.events[i].Timestamp.Before(cutoff) {
		i++
	}
	buf.events = append(buf.events[i:], ev)
}

// Recent returns the entity's events within the window ending at now,
// oldest first. The returned slice is a copy.
func (w *Window) Recent(entityID string, now time.Time) []event.Event {
	w.mu.RLock()
	buf, ok := w.entities.Get(entityID)
	w.mu.RUnlock()
	if !ok {
		return nil
	}

	cutoff := now.Add(-w.maxAge)

	buf.mu.RLock()
	defer buf.mu.RUnlock()

	var out []event.Event
	for _, ev := range buf.events {
		if ev.Timestamp.Before(cutoff) || ev.Timestamp.After(now) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Stats returns buffer counters for the health endpoint
func (w *Window) Stats() map[string]interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()

	total := 0
	for _, key := range w.entities.Keys() {
		if buf, ok := w.entities.Peek(key); ok {
			buf.mu.RLock()
			total += len(buf.events)
			buf.mu.RUnlock()
		}
	}
	return map[string]interface{}{
		"entity_count": w.entities.Len(),
		"total_events": total,
		"max_age":      w.maxAge.String(),
	}
}
