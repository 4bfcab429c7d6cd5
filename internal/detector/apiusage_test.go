package detector

import (
	"testing"
	"time"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/event"
)

func apiEvent(ts time.Time, attrs map[string]interface{}) event.Event {
	return event.Event{
		EntityID:   "user-1",
		EntityKind: event.KindUser,
		Type:       event.TypeAPIRequest,
		Timestamp:  ts,
		Attributes: attrs,
	}
}

func evaluateAPI(t *testing.T, events []event.Event, cfg *config.EngineConfig) []string {
	t.Helper()
	e := &APIUsageEvaluator{}
	signals, err := e.Evaluate("user-1", events, cfg, time.Now())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	names := make([]string, 0, len(signals))
	for _, s := range signals {
		names = append(names, s.Name)
	}
	return names
}

func TestAPIUsageEvaluator_RequestFlood(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.Detector.APIRequestsPerMinute = 5
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	var events []event.Event
	for i := 0; i < 6; i++ {
		events = append(events, apiEvent(base.Add(time.Duration(i)*time.Second), map[string]interface{}{
			"endpoint": "/api/orders",
		}))
	}

	names := evaluateAPI(t, events, cfg)
	if !hasSignal(t, names, "rate_limit_violation") {
		t.Errorf("signals = %v, want rate_limit_violation", names)
	}
}

func TestAPIUsageEvaluator_FloodSpreadAcrossMinutesIsQuiet(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.Detector.APIRequestsPerMinute = 5
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	var events []event.Event
	for i := 0; i < 10; i++ {
		events = append(events, apiEvent(base.Add(time.Duration(i)*time.Minute), map[string]interface{}{
			"endpoint": "/api/orders",
		}))
	}

	names := evaluateAPI(t, events, cfg)
	if hasSignal(t, names, "rate_limit_violation") {
		t.Errorf("signals = %v, even spread should not flood any minute", names)
	}
}

func TestAPIUsageEvaluator_UnusualEndpoint(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	var events []event.Event
	for i := 0; i < 5; i++ {
		events = append(events, apiEvent(base.Add(time.Duration(i)*time.Minute), map[string]interface{}{
			"endpoint": "/api/orders",
		}))
	}
	events = append(events, apiEvent(base.Add(6*time.Minute), map[string]interface{}{
		"endpoint": "/api/admin/export",
	}))

	names := evaluateAPI(t, events, cfg)
	if !hasSignal(t, names, "unusual_endpoint") {
		t.Errorf("signals = %v, want unusual_endpoint", names)
	}
}

func TestAPIUsageEvaluator_NewEndpointWithoutHistoryIsQuiet(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	events := []event.Event{
		apiEvent(base, map[string]interface{}{"endpoint": "/api/orders"}),
		apiEvent(base.Add(time.Minute), map[string]interface{}{"endpoint": "/api/users"}),
	}

	names := evaluateAPI(t, events, cfg)
	if hasSignal(t, names, "unusual_endpoint") {
		t.Errorf("signals = %v, two requests are not enough history", names)
	}
}

func TestAPIUsageEvaluator_SequentialEnumeration(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.Detector.EnumerationRunLength = 5
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	var events []event.Event
	for i := 0; i < 5; i++ {
		events = append(events, apiEvent(base.Add(time.Duration(i)*time.Second), map[string]interface{}{
			"endpoint":    "/api/users",
			"resource_id": float64(1000 + i),
		}))
	}

	names := evaluateAPI(t, events, cfg)
	if !hasSignal(t, names, "sequential_enumeration") {
		t.Errorf("signals = %v, want sequential_enumeration", names)
	}
}

func TestAPIUsageEvaluator_BrokenRunResets(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.Detector.EnumerationRunLength = 5
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	ids := []float64{1000, 1001, 1002, 4000, 4001, 4002}
	var events []event.Event
	for i, id := range ids {
		events = append(events, apiEvent(base.Add(time.Duration(i)*time.Second), map[string]interface{}{
			"endpoint":    "/api/users",
			"resource_id": id,
		}))
	}

	names := evaluateAPI(t, events, cfg)
	if hasSignal(t, names, "sequential_enumeration") {
		t.Errorf("signals = %v, broken run should reset the counter", names)
	}
}

func TestAPIUsageEvaluator_SQLInjection(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	events := []event.Event{
		apiEvent(base, map[string]interface{}{
			"endpoint": "/api/search",
			"params":   "q=1' OR '1'='1",
		}),
	}

	names := evaluateAPI(t, events, cfg)
	if !hasSignal(t, names, "sql_injection_attempt") {
		t.Errorf("signals = %v, want sql_injection_attempt", names)
	}
}

func TestAPIUsageEvaluator_ElevatedEndpoint(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	base := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	events := []event.Event{
		apiEvent(base, map[string]interface{}{
			"endpoint":            "/api/admin/users",
			"endpoint_privileged": true,
			"credential_elevated": false,
		}),
	}

	names := evaluateAPI(t, events, cfg)
	if !hasSignal(t, names, "privilege_escalation_attempt") {
		t.Errorf("signals = %v, want privilege_escalation_attempt", names)
	}
}

func TestAPIUsageEvaluator_IgnoresOtherEventTypes(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	e := &APIUsageEvaluator{}

	signals, err := e.Evaluate("user-1", []event.Event{
		{EntityID: "user-1", Type: event.TypeLoginFailed, Timestamp: time.Now()},
	}, cfg, time.Now())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("signals = %v, want none for non-API events", signals)
	}
}
