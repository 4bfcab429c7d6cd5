package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/domain/event"
)

// Aggregator combines the signals raised for one entity in one evaluation
// cycle into at most one alert per threat type. It is side-effect-free
// aside from alert construction and never calls the external reasoning
// collaborator.
type Aggregator struct{}

// NewAggregator creates an aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate sums signal weights into a 0..100 confidence and derives the
// blast radius. Confidence below the reporting floor suppresses the alert
// entirely; suppression is not an error.
func (a *Aggregator) Aggregate(entityID string, entityKind event.Kind, threatType string, signals []alert.Signal, cfg *config.EngineConfig, now time.Time) *alert.Alert {
	if len(signals) == 0 {
		return nil
	}

	var sum float64
	affected := 1
	for _, s := range signals {
		sum += s.Weight
		if n, ok := s.Evidence["affected_entities"].(int); ok && n > affected {
			affected = n
		}
		if n, ok := s.Evidence["affected_entities"].(float64); ok && int(n) > affected {
			affected = int(n)
		}
	}

	confidence := clip(sum, 0, 100)
	if confidence < cfg.ReportingFloor {
		return nil
	}

	return &alert.Alert{
		ID:          uuid.New().String(),
		ThreatType:  threatType,
		EntityID:    entityID,
		EntityKind:  string(entityKind),
		Confidence:  confidence,
		BlastRadius: blastRadius(threatType, entityKind, affected),
		Signals:     signals,
		Outcome:     alert.OutcomeUnknown,
		CreatedAt:   now,
	}
}

// threatBaseRadius is the narrowest radius each threat type can have;
// privilege escalation touches grants shared beyond one account
var threatBaseRadius = map[string]alert.Radius{
	alert.ThreatAccountCompromise:   alert.RadiusSingleUser,
	alert.ThreatAPIAbuse:            alert.RadiusSingleUser,
	alert.ThreatPrivilegeEscalation: alert.RadiusTeam,
}

// blastRadius maps threat type and affected-entity count to the ordinal
// categories; every tie breaks toward the wider category
func blastRadius(threatType string, entityKind event.Kind, affected int) alert.Radius {
	r, ok := threatBaseRadius[threatType]
	if !ok {
		r = alert.RadiusSingleUser
	}

	switch {
	case affected > 100:
		r = r.Widest(alert.RadiusGlobal)
	case affected > 10:
		r = r.Widest(alert.RadiusService)
	case affected > 1:
		r = r.Widest(alert.RadiusTeam)
	}

	// A compromised service credential affects every consumer of the service
	if entityKind == event.KindService {
		r = r.Widest(alert.RadiusService)
	}

	return r
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
