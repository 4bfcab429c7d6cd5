package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sentinelops/triage/internal/breaker"
	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/action"
	"github.com/sentinelops/triage/internal/domain/audit"
	"github.com/sentinelops/triage/internal/gate"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/metrics"
)

// Reversal triggers recorded on rollback
const (
	TriggerManual = "manual"
	TriggerExpiry = "expiry"
)

// ConfigProvider returns the current executor policy snapshot
type ConfigProvider func() config.ExecutorConfig

// Executor performs actions whose decision is Execute, retries
// enforcement failures with bounded exponential backoff, schedules
// auto-expiry for reversible kinds, and keeps rollback idempotent.
type Executor struct {
	enforcer Enforcer
	actions  action.Repository
	restore  RestoreStore
	sink     audit.Sink
	breaker  *breaker.Breaker
	limiter  *gate.ActionRateLimiter
	cfg      ConfigProvider
	logger   *logger.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates an executor
func New(
	enforcer Enforcer,
	actions action.Repository,
	restore RestoreStore,
	sink audit.Sink,
	brk *breaker.Breaker,
	limiter *gate.ActionRateLimiter,
	cfg ConfigProvider,
	log *logger.Logger,
) *Executor {
	return &Executor{
		enforcer: enforcer,
		actions:  actions,
		restore:  restore,
		sink:     sink,
		breaker:  brk,
		limiter:  limiter,
		cfg:      cfg,
		logger:   log,
		timers:   make(map[string]*time.Timer),
	}
}

// Execute applies the action's enforcement side effect. Exhausting the
// retry budget marks the action escalated and counts against the
// breaker's error ratio; the failure is never silently dropped.
func (e *Executor) Execute(ctx context.Context, a *action.Action, actor string) error {
	cfg := e.cfg()

	material, err := e.applyWithRetry(ctx, a, cfg)
	now := time.Now()

	if err != nil {
		e.breaker.RecordAttempt(true, now)
		metrics.RecordExecution(a.Kind, "error")

		reason := fmt.Sprintf("enforcement failed after %d attempts: %v", cfg.MaxAttempts, err)
		if terr := e.transition(ctx, a, action.StatusEscalated, reason, actor); terr != nil {
			e.logger.ErrorWithErr(terr, "Failed to persist escalation after enforcement failure")
		}
		e.append(ctx, a.ID, gate.VerdictEscalate.String(), reason, actor)
		return errors.EnforcementError(reason, err)
	}

	e.breaker.RecordAttempt(false, now)
	metrics.RecordExecution(a.Kind, "ok")

	a.ExecutedAt = now
	if err := e.transition(ctx, a, action.StatusExecuted, a.Reason, actor); err != nil {
		return err
	}
	e.limiter.Record(a.TargetEntity, a.Kind, now)

	if material != "" && action.RetainsCredential(a.Kind) {
		if err := e.restore.Save(ctx, a.ID, a.Kind, material, now); err != nil {
			e.logger.ErrorWithErr(err, "Failed to retain revoked credential material")
		}
	}

	if action.AutoExpires(a.Kind) {
		e.scheduleExpiry(a.ID, cfg.BlockIPTTL)
	}

	e.append(ctx, a.ID, gate.VerdictExecute.String(),
		fmt.Sprintf("%s executed against %s", a.Kind, a.TargetEntity), actor)
	return nil
}

// Rollback reverses an executed action. It is idempotent: an action that
// is already rolled back or expired is a no-op, not an error. This makes
// the cancel-versus-timer race benign regardless of ordering.
func (e *Executor) Rollback(ctx context.Context, a *action.Action, actor, trigger string) error {
	e.cancelExpiry(a.ID)

	switch a.Status {
	case action.StatusRolledBack, action.StatusExpired:
		return nil
	case action.StatusExecuted:
	default:
		return errors.InvalidTransition(a.Status, action.StatusRolledBack)
	}

	cfg := e.cfg()
	rctx, cancel := context.WithTimeout(ctx, cfg.EnforcementTimeout)
	defer cancel()

	if err := e.enforcer.Reverse(rctx, a); err != nil {
		return errors.EnforcementError(
			fmt.Sprintf("reverse failed for action %s", a.ID), err)
	}

	target := action.StatusRolledBack
	if trigger == TriggerExpiry {
		target = action.StatusExpired
	}
	a.ResolvedAt = time.Now()
	if err := e.transition(ctx, a, target, a.Reason, actor); err != nil {
		return err
	}

	if err := e.restore.Delete(ctx, a.ID); err != nil {
		e.logger.ErrorWithErr(err, "Failed to drop restore material on reversal")
	}

	metrics.RecordReversal(a.Kind, trigger)
	e.append(ctx, a.ID, target,
		fmt.Sprintf("%s reversed (%s)", a.Kind, trigger), actor)
	return nil
}

// ExpireOverdue reverses executed auto-expiring actions whose retention
// window has passed. It backs the cron sweeper, which recovers timers
// lost across process restarts.
func (e *Executor) ExpireOverdue(ctx context.Context, now time.Time) error {
	cfg := e.cfg()
	overdue, err := e.actions.ListExecutedBefore(ctx, action.KindBlockIP, now.Add(-cfg.BlockIPTTL))
	if err != nil {
		return err
	}
	for _, a := range overdue {
		if err := e.Rollback(ctx, a, audit.ActorSystem, TriggerExpiry); err != nil {
			e.logger.WithFields(map[string]interface{}{
				"action_id": a.ID,
			}).ErrorWithErr(err, "Failed to expire overdue action")
		}
	}
	return nil
}

// Stop cancels all pending expiry timers
func (e *Executor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}

func (e *Executor) applyWithRetry(ctx context.Context, a *action.Action, cfg config.ExecutorConfig) (string, error) {
	backoff := cfg.BackoffBase
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		actx, cancel := context.WithTimeout(ctx, cfg.EnforcementTimeout)
		material, err := e.enforcer.Apply(actx, a)
		cancel()
		if err == nil {
			return material, nil
		}
		lastErr = err

		e.logger.WithFields(map[string]interface{}{
			"action_id": a.ID,
			"kind":      a.Kind,
			"attempt":   attempt,
		}).ErrorWithErr(err, "Enforcement apply failed")

		if attempt == cfg.MaxAttempts {
			break
		}
		metrics.RecordExecutionRetry()

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		backoff *= 2
	}
	return "", lastErr
}

func (e *Executor) scheduleExpiry(actionID string, ttl time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[actionID]; ok {
		t.Stop()
	}
	e.timers[actionID] = time.AfterFunc(ttl, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		a, err := e.actions.GetByID(ctx, actionID)
		if err != nil {
			e.logger.ErrorWithErr(err, "Expiry timer could not load action")
			return
		}
		if err := e.Rollback(ctx, a, audit.ActorSystem, TriggerExpiry); err != nil {
			e.logger.WithFields(map[string]interface{}{
				"action_id": actionID,
			}).ErrorWithErr(err, "Auto-expiry reversal failed")
		}
	})
}

func (e *Executor) cancelExpiry(actionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.timers[actionID]; ok {
		t.Stop()
		delete(e.timers, actionID)
	}
}

func (e *Executor) transition(ctx context.Context, a *action.Action, to, reason, actor string) error {
	if !action.CanTransition(a.Status, to) {
		return errors.InvalidTransition(a.Status, to)
	}
	a.Status = to
	a.Reason = reason
	a.Actor = actor
	return e.actions.Update(ctx, a)
}

// append writes an audit record without ever blocking the pipeline beyond
// the sink's own bounded timeout; failures are reported and dropped
func (e *Executor) append(ctx context.Context, actionID, decision, rationale, actor string) {
	rec := &audit.Record{
		ActionID:  actionID,
		Decision:  decision,
		Rationale: rationale,
		Actor:     actor,
		CreatedAt: time.Now(),
	}
	if err := e.sink.Append(ctx, rec); err != nil {
		e.logger.WithFields(map[string]interface{}{
			"action_id": actionID,
		}).ErrorWithErr(err, "Audit append failed")
	}
}
