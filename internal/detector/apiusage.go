package detector

import (
	"fmt"
	"strings"
	"time"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/domain/event"
)

// APIUsageEvaluator inspects API request events for abusive patterns:
// request floods, access outside the entity's historical scope, sequential
// identifier enumeration, injection payloads, and elevated endpoints hit
// with non-elevated credentials.
type APIUsageEvaluator struct{}

// minScopeHistory is the number of prior requests needed before an unseen
// endpoint counts as outside the entity's historical scope
const minScopeHistory = 5

var injectionPatterns = []string{
	"' or ", "\" or ", "union select", "; drop ", "1=1", "--", "/*", "xp_cmdshell",
}

func (e *APIUsageEvaluator) Name() string { return "api_usage" }

func (e *APIUsageEvaluator) ThreatType() string { return alert.ThreatAPIAbuse }

func (e *APIUsageEvaluator) Evaluate(entityID string, events []event.Event, cfg *config.EngineConfig, now time.Time) ([]alert.Signal, error) {
	var requests []event.Event
	for _, ev := range events {
		if ev.Type != event.TypeAPIRequest {
			continue
		}
		if ev.Timestamp.IsZero() {
			return nil, fmt.Errorf("api_request for entity %s has no timestamp", entityID)
		}
		requests = append(requests, ev)
	}
	if len(requests) == 0 {
		return nil, nil
	}

	var signals []alert.Signal
	if s, ok := e.requestFlood(requests, cfg); ok {
		signals = append(signals, s)
	}
	if s, ok := e.unusualEndpoint(requests, cfg); ok {
		signals = append(signals, s)
	}
	if s, ok := e.enumeration(requests, cfg); ok {
		signals = append(signals, s)
	}
	if s, ok := e.injection(requests, cfg); ok {
		signals = append(signals, s)
	}
	if s, ok := e.elevatedEndpoint(requests, cfg); ok {
		signals = append(signals, s)
	}
	return signals, nil
}

// requestFlood checks the busiest minute in the window against the
// per-minute cap
func (e *APIUsageEvaluator) requestFlood(requests []event.Event, cfg *config.EngineConfig) (alert.Signal, bool) {
	perMinute := map[int64]int{}
	peak := 0
	for _, ev := range requests {
		bucket := ev.Timestamp.Unix() / 60
		perMinute[bucket]++
		if perMinute[bucket] > peak {
			peak = perMinute[bucket]
		}
	}
	if peak <= cfg.Detector.APIRequestsPerMinute {
		return alert.Signal{}, false
	}
	return signal("rate_limit_violation", cfg, map[string]interface{}{
		"peak_per_minute": peak,
		"cap":             cfg.Detector.APIRequestsPerMinute,
	}), true
}

// unusualEndpoint flags the first access to an endpoint the entity has
// never touched, once enough history exists to call the scope historical
func (e *APIUsageEvaluator) unusualEndpoint(requests []event.Event, cfg *config.EngineConfig) (alert.Signal, bool) {
	seen := map[string]struct{}{}
	for i, ev := range requests {
		endpoint := ev.StringAttr("endpoint")
		if endpoint == "" {
			continue
		}
		if _, known := seen[endpoint]; !known && i >= minScopeHistory {
			return signal("unusual_endpoint", cfg, map[string]interface{}{
				"endpoint":     endpoint,
				"history_size": i,
			}), true
		}
		seen[endpoint] = struct{}{}
	}
	return alert.Signal{}, false
}

// enumeration detects a run of strictly increasing consecutive resource
// identifiers
func (e *APIUsageEvaluator) enumeration(requests []event.Event, cfg *config.EngineConfig) (alert.Signal, bool) {
	run := 1
	var prev float64
	havePrev := false
	for _, ev := range requests {
		if _, ok := ev.Attributes["resource_id"]; !ok {
			continue
		}
		id := ev.FloatAttr("resource_id")
		if havePrev && id == prev+1 {
			run++
			if run >= cfg.Detector.EnumerationRunLength {
				return signal("sequential_enumeration", cfg, map[string]interface{}{
					"run_length": run,
					"last_id":    id,
				}), true
			}
		} else {
			run = 1
		}
		prev = id
		havePrev = true
	}
	return alert.Signal{}, false
}

func (e *APIUsageEvaluator) injection(requests []event.Event, cfg *config.EngineConfig) (alert.Signal, bool) {
	for _, ev := range requests {
		params := strings.ToLower(ev.StringAttr("params"))
		if params == "" {
			continue
		}
		for _, pattern := range injectionPatterns {
			if strings.Contains(params, pattern) {
				return signal("sql_injection_attempt", cfg, map[string]interface{}{
					"endpoint": ev.StringAttr("endpoint"),
					"pattern":  strings.TrimSpace(pattern),
				}), true
			}
		}
	}
	return alert.Signal{}, false
}

func (e *APIUsageEvaluator) elevatedEndpoint(requests []event.Event, cfg *config.EngineConfig) (alert.Signal, bool) {
	for _, ev := range requests {
		if ev.BoolAttr("endpoint_privileged") && !ev.BoolAttr("credential_elevated") {
			return signal("privilege_escalation_attempt", cfg, map[string]interface{}{
				"endpoint": ev.StringAttr("endpoint"),
			}), true
		}
	}
	return alert.Signal{}, false
}
