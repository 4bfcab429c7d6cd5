package gate

import (
	"sync"
	"time"

	"github.com/sentinelops/triage/internal/config"
)

// ActionRateLimiter counts executed actions over fixed trailing windows,
// keyed by entity for the hourly cap and by entity and action kind for the
// per-minute cap. It is one of the two globally shared counters in the
// engine and must never lose an update under concurrent access.
type ActionRateLimiter struct {
	mu       sync.Mutex
	hourly   map[string]*fixedWindow
	byMinute map[string]*fixedWindow
}

type fixedWindow struct {
	bucket int64
	count  int
}

// NewActionRateLimiter creates an empty limiter
func NewActionRateLimiter() *ActionRateLimiter {
	return &ActionRateLimiter{
		hourly:   make(map[string]*fixedWindow),
		byMinute: make(map[string]*fixedWindow),
	}
}

// Allow reports whether another execution for the entity and kind fits
// under the configured caps. It does not consume quota; Record does, once
// the action actually executes.
func (l *ActionRateLimiter) Allow(entity, kind string, cfg config.ActionRateConfig, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count(l.hourly, entity, now.Unix()/3600) >= cfg.PerHour {
		return false
	}
	if l.count(l.byMinute, entity+"|"+kind, now.Unix()/60) >= cfg.PerMinute {
		return false
	}
	return true
}

// Record consumes quota for an executed action
func (l *ActionRateLimiter) Record(entity, kind string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.bump(l.hourly, entity, now.Unix()/3600)
	l.bump(l.byMinute, entity+"|"+kind, now.Unix()/60)
}

// Executed returns the entity's count in the current hourly window
func (l *ActionRateLimiter) Executed(entity string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count(l.hourly, entity, now.Unix()/3600)
}

func (l *ActionRateLimiter) count(m map[string]*fixedWindow, key string, bucket int64) int {
	w, ok := m[key]
	if !ok || w.bucket != bucket {
		return 0
	}
	return w.count
}

func (l *ActionRateLimiter) bump(m map[string]*fixedWindow, key string, bucket int64) {
	w, ok := m[key]
	if !ok || w.bucket != bucket {
		m[key] = &fixedWindow{bucket: bucket, count: 1}
		return
	}
	w.count++
}
