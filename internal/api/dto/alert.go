package dto

import (
	"time"

	"github.com/sentinelops/triage/internal/domain/alert"
)

// SignalDTO represents one contributing detection signal
type SignalDTO struct {
	Name     string                 `json:"name"`
	Weight   float64                `json:"weight"`
	Evidence map[string]interface{} `json:"evidence,omitempty"`
}

// AlertDTO represents an alert in API responses
type AlertDTO struct {
	ID          string      `json:"id"`
	ThreatType  string      `json:"threat_type"`
	EntityID    string      `json:"entity_id"`
	EntityKind  string      `json:"entity_kind"`
	Confidence  float64     `json:"confidence"`
	BlastRadius string      `json:"blast_radius"`
	Signals     []SignalDTO `json:"signals"`
	Outcome     string      `json:"outcome"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewAlertDTO maps a domain alert to its API representation
func NewAlertDTO(a *alert.Alert) AlertDTO {
	signals := make([]SignalDTO, len(a.Signals))
	for i, s := range a.Signals {
		signals[i] = SignalDTO{Name: s.Name, Weight: s.Weight, Evidence: s.Evidence}
	}
	return AlertDTO{
		ID:          a.ID,
		ThreatType:  a.ThreatType,
		EntityID:    a.EntityID,
		EntityKind:  string(a.EntityKind),
		Confidence:  a.Confidence,
		BlastRadius: string(a.BlastRadius),
		Signals:     signals,
		Outcome:     a.Outcome,
		CreatedAt:   a.CreatedAt,
	}
}

// ResolveAlertRequest records the analyst review outcome for an alert
type ResolveAlertRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=true_positive false_positive"`
}
