package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/detector"
	"github.com/sentinelops/triage/internal/domain/action"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/domain/audit"
	"github.com/sentinelops/triage/internal/domain/event"
	"github.com/sentinelops/triage/internal/engine"
	"github.com/sentinelops/triage/internal/executor"
	"github.com/sentinelops/triage/internal/gate"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/metrics"
	"github.com/sentinelops/triage/internal/reasoning"
)

// workerQueueSize bounds each per-entity queue; enqueue blocks when a
// single entity floods faster than its worker drains
const workerQueueSize = 256

// workerIdleTTL is how long an entity worker lingers without input before
// shutting down
const workerIdleTTL = 2 * time.Minute

// Pipeline routes events through evaluation, aggregation, the safety gate
// and the executor. Events for the same entity are processed in arrival
// order by a dedicated worker; different entities run fully in parallel.
type Pipeline struct {
	window       *detector.Window
	registry     *detector.Registry
	aggregator   *engine.Aggregator
	gate         *gate.Gate
	executor     *executor.Executor
	investigator reasoning.Investigator
	alerts       alert.Repository
	actions      action.Repository
	sink         audit.Sink
	store        *config.EngineStore
	logger       *logger.Logger

	mu      sync.Mutex
	workers map[string]chan event.Event
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a pipeline
func New(
	window *detector.Window,
	registry *detector.Registry,
	aggregator *engine.Aggregator,
	g *gate.Gate,
	exec *executor.Executor,
	investigator reasoning.Investigator,
	alerts alert.Repository,
	actions action.Repository,
	sink audit.Sink,
	store *config.EngineStore,
	log *logger.Logger,
) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		window:       window,
		registry:     registry,
		aggregator:   aggregator,
		gate:         g,
		executor:     exec,
		investigator: investigator,
		alerts:       alerts,
		actions:      actions,
		sink:         sink,
		store:        store,
		logger:       log,
		workers:      make(map[string]chan event.Event),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Enqueue hands an event to its entity's worker, creating the worker on
// first use. Blocks if that entity's queue is full.
func (p *Pipeline) Enqueue(ev event.Event) {
	if ev.EntityID == "" {
		return
	}

	p.mu.Lock()
	ch, ok := p.workers[ev.EntityID]
	if !ok {
		ch = make(chan event.Event, workerQueueSize)
		p.workers[ev.EntityID] = ch
		p.wg.Add(1)
		go p.runWorker(ev.EntityID, ch)
	}
	p.mu.Unlock()

	select {
	case ch <- ev:
	case <-p.ctx.Done():
	}
}

// Stop shuts down all workers and waits for in-flight evaluations
func (p *Pipeline) Stop() {
	p.cancel()
	p.wg.Wait()
}

// runWorker serializes evaluation for one entity. The worker exits after
// an idle period; a later event recreates it.
func (p *Pipeline) runWorker(entityID string, ch chan event.Event) {
	defer p.wg.Done()

	idle := time.NewTimer(workerIdleTTL)
	defer idle.Stop()

	for {
		select {
		case ev := <-ch:
			if !idle.Stop() {
				<-idle.C
			}
			p.ProcessEvent(p.ctx, ev)
			idle.Reset(workerIdleTTL)

		case <-idle.C:
			p.mu.Lock()
			if len(ch) == 0 {
				delete(p.workers, entityID)
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			idle.Reset(workerIdleTTL)

		case <-p.ctx.Done():
			return
		}
	}
}

// ProcessEvent runs one full evaluation cycle for an event. Exported for
// callers that already serialize per entity.
func (p *Pipeline) ProcessEvent(ctx context.Context, ev event.Event) {
	start := time.Now()
	defer func() {
		metrics.RecordEvaluationDuration(time.Since(start))
	}()

	p.window.Add(ev)
	metrics.RecordEventEvaluated(string(ev.EntityKind))

	cfg := p.store.Snapshot()
	events := p.window.Recent(ev.EntityID, ev.Timestamp)
	byThreat := p.registry.EvaluateAll(ev.EntityID, events, cfg, ev.Timestamp)

	for threatType, signals := range byThreat {
		a := p.aggregator.Aggregate(ev.EntityID, ev.EntityKind, threatType, signals, cfg, ev.Timestamp)
		if a == nil {
			continue
		}
		p.handleAlert(ctx, a, cfg)
	}
}

func (p *Pipeline) handleAlert(ctx context.Context, a *alert.Alert, cfg *config.EngineConfig) {
	if err := p.alerts.Create(ctx, a); err != nil {
		p.logger.WithFields(map[string]interface{}{
			"alert_id": a.ID,
		}).ErrorWithErr(err, "Failed to persist alert")
		return
	}
	metrics.RecordAlertRaised(a.ThreatType, string(a.BlastRadius))

	act := &action.Action{
		ID:           uuid.New().String(),
		AlertID:      a.ID,
		Kind:         proposedKind(a),
		TargetEntity: a.EntityID,
		Status:       action.StatusProposed,
		ProposedAt:   a.CreatedAt,
	}
	if err := p.actions.Create(ctx, act); err != nil {
		p.logger.WithFields(map[string]interface{}{
			"alert_id": a.ID,
		}).ErrorWithErr(err, "Failed to persist proposed action")
		return
	}

	req := gate.Request{Alert: a, Action: act, Now: time.Now()}

	// Reasoning runs only for auto-execute candidates; it is optional and
	// its absence never blocks the deterministic checks
	if a.Confidence >= cfg.AutoExecuteThreshold(act.Kind) {
		if assessment, err := p.investigator.Investigate(ctx, a); err != nil {
			p.logger.WithFields(map[string]interface{}{
				"alert_id": a.ID,
			}).ErrorWithErr(err, "Reasoning unavailable, proceeding on deterministic checks")
		} else if assessment != nil {
			req.ExternalRiskScore = &assessment.RiskScore
		}
	}

	decision := p.gate.Evaluate(req, cfg)

	switch decision.Verdict {
	case gate.VerdictExecute:
		if err := p.executor.Execute(ctx, act, audit.ActorSystem); err != nil {
			p.logger.WithFields(map[string]interface{}{
				"action_id": act.ID,
			}).ErrorWithErr(err, "Execution failed and was escalated")
		}

	case gate.VerdictEscalate:
		p.settle(ctx, act, action.StatusEscalated, decision)

	case gate.VerdictLogOnly:
		p.settle(ctx, act, action.StatusLogOnly, decision)
	}
}

func (p *Pipeline) settle(ctx context.Context, act *action.Action, status string, decision gate.Decision) {
	act.Status = status
	act.Reason = decision.Reason
	act.Actor = audit.ActorSystem
	if err := p.actions.Update(ctx, act); err != nil {
		p.logger.WithFields(map[string]interface{}{
			"action_id": act.ID,
		}).ErrorWithErr(err, "Failed to persist gate decision")
		return
	}

	rec := &audit.Record{
		ActionID:  act.ID,
		Decision:  decision.Verdict.String(),
		Rationale: fmt.Sprintf("%s: %s", decision.Check, decision.Reason),
		Actor:     audit.ActorSystem,
		CreatedAt: time.Now(),
	}
	if err := p.sink.Append(ctx, rec); err != nil {
		p.logger.ErrorWithErr(err, "Audit append failed")
	}
}

// proposedKind picks the corrective measure for an alert from its threat
// type and strongest evidence
func proposedKind(a *alert.Alert) string {
	has := func(name string) bool {
		for _, s := range a.Signals {
			if s.Name == name {
				return true
			}
		}
		return false
	}

	switch a.ThreatType {
	case alert.ThreatAccountCompromise:
		if has("failed_login_burst") || has("bot_user_agent") {
			return action.KindBlockIP
		}
		if has("impossible_travel") {
			return action.KindRequireMFA
		}
		return action.KindRevokeSession

	case alert.ThreatAPIAbuse:
		if has("sql_injection_attempt") || has("privilege_escalation_attempt") {
			return action.KindRevokeAPIKey
		}
		return action.KindRateLimit

	case alert.ThreatPrivilegeEscalation:
		if has("service_account_misuse") {
			return action.KindDisableServiceAccount
		}
		return action.KindLockAccount
	}
	return action.KindLogOnly
}
