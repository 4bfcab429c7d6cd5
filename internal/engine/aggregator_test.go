package engine

import (
	"testing"
	"time"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/domain/event"
)

func sig(name string, weight float64) alert.Signal {
	return alert.Signal{Name: name, Weight: weight}
}

func TestAggregator_Confidence(t *testing.T) {
	agg := NewAggregator()
	cfg := config.DefaultEngineConfig()
	now := time.Now()

	tests := []struct {
		name           string
		signals        []alert.Signal
		wantNil        bool
		wantConfidence float64
	}{
		{
			name:    "no signals yields no alert",
			signals: nil,
			wantNil: true,
		},
		{
			name:    "below reporting floor is suppressed",
			signals: []alert.Signal{sig("unusual_time", 15)},
			wantNil: true,
		},
		{
			name:           "at reporting floor reports",
			signals:        []alert.Signal{sig("anomalous_geography", 25)},
			wantConfidence: 25,
		},
		{
			name:           "lone burst clears the floor",
			signals:        []alert.Signal{sig("failed_login_burst", 30)},
			wantConfidence: 30,
		},
		{
			name: "weights sum",
			signals: []alert.Signal{
				sig("failed_login_burst", 30),
				sig("impossible_travel", 35),
			},
			wantConfidence: 65,
		},
		{
			name: "sum clips at 100",
			signals: []alert.Signal{
				sig("failed_login_burst", 30),
				sig("impossible_travel", 35),
				sig("sql_injection_attempt", 40),
				sig("unauthorized_role_change", 40),
			},
			wantConfidence: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := agg.Aggregate("user-1", event.KindUser, alert.ThreatAccountCompromise, tt.signals, cfg, now)

			if tt.wantNil {
				if a != nil {
					t.Fatalf("Aggregate() = %+v, want nil", a)
				}
				return
			}
			if a == nil {
				t.Fatal("Aggregate() = nil, want alert")
			}
			if a.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %.0f, want %.0f", a.Confidence, tt.wantConfidence)
			}
			if a.ID == "" {
				t.Error("alert has no ID")
			}
			if a.Outcome != alert.OutcomeUnknown {
				t.Errorf("Outcome = %q, want %q", a.Outcome, alert.OutcomeUnknown)
			}
			if !a.CreatedAt.Equal(now) {
				t.Error("CreatedAt should be the evaluation time")
			}
		})
	}
}

func TestAggregator_BlastRadius(t *testing.T) {
	agg := NewAggregator()
	cfg := config.DefaultEngineConfig()
	now := time.Now()

	tests := []struct {
		name       string
		threatType string
		entityKind event.Kind
		signals    []alert.Signal
		want       alert.Radius
	}{
		{
			name:       "account compromise defaults to single user",
			threatType: alert.ThreatAccountCompromise,
			entityKind: event.KindUser,
			signals:    []alert.Signal{sig("impossible_travel", 50)},
			want:       alert.RadiusSingleUser,
		},
		{
			name:       "privilege escalation starts at team",
			threatType: alert.ThreatPrivilegeEscalation,
			entityKind: event.KindUser,
			signals:    []alert.Signal{sig("unauthorized_role_change", 50)},
			want:       alert.RadiusTeam,
		},
		{
			name:       "service entity widens to service",
			threatType: alert.ThreatAccountCompromise,
			entityKind: event.KindService,
			signals:    []alert.Signal{sig("impossible_travel", 50)},
			want:       alert.RadiusService,
		},
		{
			name:       "affected entity count widens",
			threatType: alert.ThreatAPIAbuse,
			entityKind: event.KindUser,
			signals: []alert.Signal{{
				Name: "sequential_enumeration", Weight: 50,
				Evidence: map[string]interface{}{"affected_entities": 25},
			}},
			want: alert.RadiusService,
		},
		{
			name:       "large affected count goes global",
			threatType: alert.ThreatAPIAbuse,
			entityKind: event.KindUser,
			signals: []alert.Signal{{
				Name: "sequential_enumeration", Weight: 50,
				// JSON-decoded evidence carries numbers as float64
				Evidence: map[string]interface{}{"affected_entities": float64(500)},
			}},
			want: alert.RadiusGlobal,
		},
		{
			name:       "widening never narrows the base radius",
			threatType: alert.ThreatPrivilegeEscalation,
			entityKind: event.KindUser,
			signals: []alert.Signal{{
				Name: "unauthorized_role_change", Weight: 50,
				Evidence: map[string]interface{}{"affected_entities": 1},
			}},
			want: alert.RadiusTeam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := agg.Aggregate("entity-1", tt.entityKind, tt.threatType, tt.signals, cfg, now)
			if a == nil {
				t.Fatal("Aggregate() = nil, want alert")
			}
			if a.BlastRadius != tt.want {
				t.Errorf("BlastRadius = %s, want %s", a.BlastRadius, tt.want)
			}
		})
	}
}
