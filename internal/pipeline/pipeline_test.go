package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelops/triage/internal/breaker"
	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/detector"
	"github.com/sentinelops/triage/internal/domain/action"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/domain/event"
	"github.com/sentinelops/triage/internal/engine"
	"github.com/sentinelops/triage/internal/executor"
	"github.com/sentinelops/triage/internal/gate"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/reasoning"
	"github.com/sentinelops/triage/internal/testutil"
)

const testEngineYAML = `
reporting_floor: 40
confidence:
  high_water: 90
  low_water: 70
  external_risk_caution: 70
protected_entities:
  - root
known_bad_user_agents:
  - sqlmap
`

type pipelineFixture struct {
	pipe     *Pipeline
	alerts   *testutil.MockAlertRepository
	actions  *testutil.MockActionRepository
	audits   *testutil.MockAuditRepository
	enforcer *testutil.MockEnforcer
	invest   *testutil.MockInvestigator
	breaker  *breaker.Breaker
	store    *config.EngineStore
}

func newPipelineFixture(t *testing.T, invest *testutil.MockInvestigator) *pipelineFixture {
	return newPipelineFixtureWithConfig(t, testEngineYAML, invest)
}

// newPipelineFixtureWithConfig builds a pipeline over the given engine
// policy document; "{}" runs on the shipped defaults
func newPipelineFixtureWithConfig(t *testing.T, engineYAML string, invest *testutil.MockInvestigator) *pipelineFixture {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(engineYAML), 0o644))
	store, err := config.LoadEngine(path, log)
	require.NoError(t, err)

	f := &pipelineFixture{
		alerts:   testutil.NewMockAlertRepository(),
		actions:  testutil.NewMockActionRepository(),
		audits:   testutil.NewMockAuditRepository(),
		enforcer: &testutil.MockEnforcer{},
		invest:   invest,
		store:    store,
	}

	f.breaker = breaker.New(func() config.BreakerConfig { return store.Snapshot().Breaker }, log)
	limiter := gate.NewActionRateLimiter()
	safetyGate := gate.New(f.breaker, limiter)
	exec := executor.New(f.enforcer, f.actions, testutil.NewMockRestoreStore(), f.audits,
		f.breaker, limiter, func() config.ExecutorConfig { return store.Snapshot().Executor }, log)
	t.Cleanup(exec.Stop)

	window, err := detector.NewWindow(store.Snapshot().Detector.EventWindow, store.Snapshot().Detector.MaxTrackedEntities)
	require.NoError(t, err)

	var inv reasoning.Investigator = reasoning.Noop{}
	if invest != nil {
		inv = invest
	}

	f.pipe = New(window, detector.NewRegistry(log), engine.NewAggregator(), safetyGate, exec,
		inv, f.alerts, f.actions, f.audits, store, log)
	t.Cleanup(f.pipe.Stop)
	return f
}

// failedLogin scatters source addresses so only the burst count is in
// play; single-source tests set source_ip themselves
func failedLogin(entity string, ts time.Time) event.Event {
	return event.Event{
		EntityID:   entity,
		EntityKind: event.KindUser,
		Type:       event.TypeLoginFailed,
		Timestamp:  ts,
		Attributes: map[string]interface{}{"source_ip": fmt.Sprintf("203.0.113.%d", 10+ts.Second())},
	}
}

func successLogin(entity string, ts time.Time, country string, lat, lon float64) event.Event {
	return event.Event{
		EntityID:   entity,
		EntityKind: event.KindUser,
		Type:       event.TypeLoginSuccess,
		Timestamp:  ts,
		Attributes: map[string]interface{}{"country": country, "lat": lat, "lon": lon},
	}
}

func (f *pipelineFixture) process(events ...event.Event) {
	for _, ev := range events {
		f.pipe.ProcessEvent(context.Background(), ev)
	}
}

func (f *pipelineFixture) actionsByStatus(t *testing.T, status string) []*action.Action {
	t.Helper()
	out, _, err := f.actions.List(context.Background(), action.Filter{Status: status}, 0, 0)
	require.NoError(t, err)
	return out
}

func TestPipeline_LowConfidenceIsLogOnly(t *testing.T) {
	f := newPipelineFixture(t, &testutil.MockInvestigator{})
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	// Six scattered failures score the burst at 36; the scanner UA adds
	// bot_user_agent for a confidence of 56, under the 70 low-water mark
	for i := 0; i < 5; i++ {
		f.process(failedLogin("user-1", base.Add(time.Duration(i)*time.Second)))
	}
	last := failedLogin("user-1", base.Add(6*time.Second))
	last.Attributes["user_agent"] = "sqlmap/1.7"
	f.process(last)

	logged := f.actionsByStatus(t, action.StatusLogOnly)
	require.NotEmpty(t, logged)
	assert.Equal(t, action.KindBlockIP, logged[0].Kind)
	assert.Contains(t, logged[0].Reason, "low-water")

	assert.Empty(t, f.actionsByStatus(t, action.StatusExecuted))
	assert.Equal(t, 0, f.enforcer.ApplyCount())
	assert.Equal(t, 0, f.invest.Calls, "reasoning runs only for auto-execute candidates")

	recs := f.audits.ForAction(logged[0].ID)
	require.NotEmpty(t, recs)
	assert.Equal(t, "log_only", recs[0].Decision)
	assert.Contains(t, recs[0].Rationale, gate.CheckConfidence)
}

func TestPipeline_HighConfidenceExecutes(t *testing.T) {
	f := newPipelineFixture(t, &testutil.MockInvestigator{
		Assessment: &reasoning.RiskAssessment{RiskScore: 20, Narrative: "credential stuffing from a known botnet"},
	})
	base := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		f.process(failedLogin("user-2", base.Add(time.Duration(i)*time.Second)))
	}
	// Impossible travel at 03:00 UTC stacks enough weight to clear the
	// block_ip auto-execute threshold
	f.process(successLogin("user-2", base.Add(2*time.Minute), "US", 40.7, -74.0))
	f.process(successLogin("user-2", base.Add(8*time.Minute), "RU", 55.7, 37.6))

	executed := f.actionsByStatus(t, action.StatusExecuted)
	require.NotEmpty(t, executed)
	assert.Equal(t, action.KindBlockIP, executed[0].Kind)
	assert.Equal(t, "user-2", executed[0].TargetEntity)
	assert.False(t, executed[0].ExecutedAt.IsZero())
	assert.GreaterOrEqual(t, f.enforcer.ApplyCount(), 1)
	assert.Equal(t, 1, f.invest.Calls)

	stored, err := f.alerts.GetByID(context.Background(), executed[0].AlertID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), stored.Confidence)
	assert.Equal(t, alert.RadiusSingleUser, stored.BlastRadius)
}

func TestPipeline_ExternalRiskDowngradesExecution(t *testing.T) {
	f := newPipelineFixture(t, &testutil.MockInvestigator{
		Assessment: &reasoning.RiskAssessment{RiskScore: 85, Narrative: "possible shared NAT, needs human review"},
	})
	base := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		f.process(failedLogin("user-3", base.Add(time.Duration(i)*time.Second)))
	}
	f.process(successLogin("user-3", base.Add(2*time.Minute), "US", 40.7, -74.0))
	f.process(successLogin("user-3", base.Add(8*time.Minute), "RU", 55.7, 37.6))

	assert.Empty(t, f.actionsByStatus(t, action.StatusExecuted))
	escalated := f.actionsByStatus(t, action.StatusEscalated)
	require.NotEmpty(t, escalated)
	assert.Contains(t, escalated[0].Reason, "external risk score")
	assert.Equal(t, 0, f.enforcer.ApplyCount())
}

func TestPipeline_ReasoningFailureFallsBackToDeterministicChecks(t *testing.T) {
	f := newPipelineFixture(t, &testutil.MockInvestigator{Err: context.DeadlineExceeded})
	base := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		f.process(failedLogin("user-4", base.Add(time.Duration(i)*time.Second)))
	}
	f.process(successLogin("user-4", base.Add(2*time.Minute), "US", 40.7, -74.0))
	f.process(successLogin("user-4", base.Add(8*time.Minute), "RU", 55.7, 37.6))

	// The collaborator being down never blocks execution
	require.NotEmpty(t, f.actionsByStatus(t, action.StatusExecuted))
	assert.Equal(t, 1, f.invest.Calls)
}

func TestPipeline_ProtectedEntityEscalates(t *testing.T) {
	f := newPipelineFixture(t, &testutil.MockInvestigator{})
	base := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		f.process(failedLogin("root", base.Add(time.Duration(i)*time.Second)))
	}
	f.process(successLogin("root", base.Add(2*time.Minute), "US", 40.7, -74.0))
	f.process(successLogin("root", base.Add(8*time.Minute), "RU", 55.7, 37.6))

	assert.Empty(t, f.actionsByStatus(t, action.StatusExecuted))
	escalated := f.actionsByStatus(t, action.StatusEscalated)
	require.NotEmpty(t, escalated)
	assert.Contains(t, escalated[0].Reason, "protected")
	assert.Equal(t, 0, f.enforcer.ApplyCount())
}

func TestPipeline_TrippedBreakerStopsExecution(t *testing.T) {
	f := newPipelineFixture(t, &testutil.MockInvestigator{})
	f.breaker.Trip("admin@example.com", "incident response freeze", time.Now())
	base := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		f.process(failedLogin("user-5", base.Add(time.Duration(i)*time.Second)))
	}
	f.process(successLogin("user-5", base.Add(2*time.Minute), "US", 40.7, -74.0))
	f.process(successLogin("user-5", base.Add(8*time.Minute), "RU", 55.7, 37.6))

	assert.Empty(t, f.actionsByStatus(t, action.StatusExecuted))
	require.NotEmpty(t, f.actionsByStatus(t, action.StatusEscalated))
	assert.Equal(t, 0, f.enforcer.ApplyCount())
}

func TestPipeline_QuietTrafficRaisesNothing(t *testing.T) {
	f := newPipelineFixture(t, &testutil.MockInvestigator{})
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	f.process(successLogin("user-6", base, "US", 40.7, -74.0))
	f.process(failedLogin("user-6", base.Add(time.Minute)))

	total, err := f.alerts.CountByOutcome(context.Background())
	require.NoError(t, err)
	assert.Empty(t, total)
}

func TestPipeline_SingleSourceBurstExecutesWithShippedDefaults(t *testing.T) {
	f := newPipelineFixtureWithConfig(t, "{}\n", &testutil.MockInvestigator{})
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	// Eight failures in four minutes, all hammering from one address
	for i := 0; i < 8; i++ {
		ev := failedLogin("user-7", base.Add(time.Duration(i)*30*time.Second))
		ev.Attributes["source_ip"] = "203.0.113.99"
		f.process(ev)
	}

	executed := f.actionsByStatus(t, action.StatusExecuted)
	require.NotEmpty(t, executed)
	assert.Equal(t, action.KindBlockIP, executed[0].Kind)
	assert.Equal(t, "user-7", executed[0].TargetEntity)
	assert.GreaterOrEqual(t, f.enforcer.ApplyCount(), 1)

	stored, err := f.alerts.GetByID(context.Background(), executed[0].AlertID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stored.Confidence, float64(80))
	assert.Equal(t, alert.RadiusSingleUser, stored.BlastRadius)
}

func TestPipeline_EnqueueSerializesPerEntityUnderParallelIngest(t *testing.T) {
	f := newPipelineFixtureWithConfig(t, "{}\n", nil)
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	// One producer per entity; only the evaluation that sees all eight
	// failures in arrival order clears the block_ip threshold
	entities := []string{"user-a", "user-b", "user-c"}
	var wg sync.WaitGroup
	for n, entity := range entities {
		wg.Add(1)
		go func(n int, entity string) {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				ev := failedLogin(entity, base.Add(time.Duration(i)*30*time.Second))
				ev.Attributes["source_ip"] = fmt.Sprintf("198.51.100.%d", n)
				f.pipe.Enqueue(ev)
			}
		}(n, entity)
	}
	wg.Wait()

	// No require inside the Eventually closure; it polls off the test goroutine
	executedFor := func(entity string) []*action.Action {
		out, _, err := f.actions.List(context.Background(),
			action.Filter{Status: action.StatusExecuted, TargetEntity: entity}, 0, 0)
		if err != nil {
			return nil
		}
		return out
	}

	for _, entity := range entities {
		entity := entity
		require.Eventually(t, func() bool {
			return len(executedFor(entity)) == 1
		}, 2*time.Second, 10*time.Millisecond, "no executed block for %s", entity)
	}

	for _, entity := range entities {
		out := executedFor(entity)
		require.Len(t, out, 1)
		assert.Equal(t, action.KindBlockIP, out[0].Kind)

		stored, err := f.alerts.GetByID(context.Background(), out[0].AlertID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stored.Confidence, float64(80))
	}
}

func TestPipeline_EnqueueIgnoresAnonymousEvents(t *testing.T) {
	f := newPipelineFixture(t, &testutil.MockInvestigator{})
	f.pipe.Enqueue(event.Event{Type: event.TypeLoginFailed, Timestamp: time.Now()})
	// Nothing to wait for; the event was dropped before any worker spawned
	assert.Empty(t, f.actionsByStatus(t, action.StatusProposed))
}
