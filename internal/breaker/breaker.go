package breaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/metrics"
)

// Trip reasons
const (
	ReasonFalsePositives = "false_positive_ratio"
	ReasonExecutionError = "execution_error_ratio"
	ReasonManual         = "manual"
)

// ConfigProvider returns the current breaker policy; it is called on every
// update so hot reloads take effect without restarting the breaker
type ConfigProvider func() config.BreakerConfig

type sample struct {
	at  time.Time
	bad bool
}

// Breaker is a rolling-window health monitor over two independent
// counters: the ratio of resolved alerts marked false positive, and the
// ratio of action executions that errored. It is written from multiple
// concurrent completion paths; every counter update is mutex-guarded.
type Breaker struct {
	mu sync.Mutex

	cfg    ConfigProvider
	logger *logger.Logger

	tripped   bool
	reason    string
	actor     string
	trippedAt time.Time

	resolved []sample
	attempts []sample
}

// State is an externally visible snapshot of the breaker
type State struct {
	Tripped            bool      `json:"tripped"`
	Reason             string    `json:"reason,omitempty"`
	Actor              string    `json:"actor,omitempty"`
	TrippedAt          time.Time `json:"tripped_at,omitempty"`
	FalsePositiveRatio float64   `json:"false_positive_ratio"`
	ErrorRatio         float64   `json:"error_ratio"`
	ResolvedCount      int       `json:"resolved_count"`
	AttemptCount       int       `json:"attempt_count"`
}

// New creates a closed breaker
func New(cfg ConfigProvider, log *logger.Logger) *Breaker {
	return &Breaker{cfg: cfg, logger: log}
}

// Tripped reports whether automatic execution is disabled, and why
func (b *Breaker) Tripped() (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped, b.reason
}

// RecordResolution records an analyst resolving an alert. A false
// positive counts against the false-positive ratio and may trip the
// breaker on this very call.
func (b *Breaker) RecordResolution(falsePositive bool, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg := b.cfg()
	b.resolved = prune(append(b.resolved, sample{at: now, bad: falsePositive}), now, cfg.Window)

	ratio, n := ratio(b.resolved)
	if !b.tripped && n >= cfg.MinResolved && ratio > cfg.FalsePositiveRatio {
		b.trip(ReasonFalsePositives, "system", now, fmt.Sprintf(
			"false-positive ratio %.2f above threshold %.2f over %d resolved alerts",
			ratio, cfg.FalsePositiveRatio, n))
	}
}

// RecordAttempt records an action execution attempt outcome. Errored
// attempts count against the execution-error ratio.
func (b *Breaker) RecordAttempt(errored bool, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg := b.cfg()
	b.attempts = prune(append(b.attempts, sample{at: now, bad: errored}), now, cfg.Window)

	ratio, n := ratio(b.attempts)
	if !b.tripped && n >= cfg.MinAttempts && ratio > cfg.ErrorRatio {
		b.trip(ReasonExecutionError, "system", now, fmt.Sprintf(
			"execution-error ratio %.2f above threshold %.2f over %d attempts",
			ratio, cfg.ErrorRatio, n))
	}
}

// Trip disables automatic execution on an explicit request
func (b *Breaker) Trip(actor, why string, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tripped {
		return
	}
	b.trip(ReasonManual, actor, now, why)
}

// Reset re-enables automatic execution. The breaker re-checks both ratios
// itself rather than trusting the caller, and refuses while either is
// still above threshold.
func (b *Breaker) Reset(actor string, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.tripped {
		return nil
	}

	cfg := b.cfg()
	b.resolved = prune(b.resolved, now, cfg.Window)
	b.attempts = prune(b.attempts, now, cfg.Window)

	if r, n := ratio(b.resolved); n >= cfg.MinResolved && r > cfg.FalsePositiveRatio {
		return fmt.Errorf("reset refused: false-positive ratio %.2f still above threshold %.2f", r, cfg.FalsePositiveRatio)
	}
	if r, n := ratio(b.attempts); n >= cfg.MinAttempts && r > cfg.ErrorRatio {
		return fmt.Errorf("reset refused: execution-error ratio %.2f still above threshold %.2f", r, cfg.ErrorRatio)
	}

	b.tripped = false
	b.reason = ""
	b.actor = actor
	b.trippedAt = time.Time{}
	metrics.SetBreakerTripped(false)

	b.logger.WithFields(map[string]interface{}{
		"actor": actor,
	}).Info("Circuit breaker reset")
	return nil
}

// Snapshot returns the current breaker state and ratios
func (b *Breaker) Snapshot(now time.Time) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg := b.cfg()
	b.resolved = prune(b.resolved, now, cfg.Window)
	b.attempts = prune(b.attempts, now, cfg.Window)

	fp, nr := ratio(b.resolved)
	er, na := ratio(b.attempts)
	return State{
		Tripped:            b.tripped,
		Reason:             b.reason,
		Actor:              b.actor,
		TrippedAt:          b.trippedAt,
		FalsePositiveRatio: fp,
		ErrorRatio:         er,
		ResolvedCount:      nr,
		AttemptCount:       na,
	}
}

// trip is called with the mutex held
func (b *Breaker) trip(reason, actor string, now time.Time, why string) {
	b.tripped = true
	b.reason = why
	b.actor = actor
	b.trippedAt = now
	metrics.SetBreakerTripped(true)
	metrics.RecordBreakerTrip(reason)

	b.logger.WithFields(map[string]interface{}{
		"reason": reason,
		"actor":  actor,
		"detail": why,
	}).Warn("Circuit breaker tripped, automatic execution disabled")
}

func prune(samples []sample, now time.Time, window time.Duration) []sample {
	cutoff := now.Add(-window)
	i := 0
	for i < len(samples) && samples[i].at.Before(cutoff) {
		i++
	}
	return samples[i:]
}

func ratio(samples []sample) (float64, int) {
	if len(samples) == 0 {
		return 0, 0
	}
	bad := 0
	for _, s := range samples {
		if s.bad {
			bad++
		}
	}
	return float64(bad) / float64(len(samples)), len(samples)
}
