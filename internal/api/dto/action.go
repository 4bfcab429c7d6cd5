package dto

import (
	"time"

	"github.com/sentinelops/triage/internal/domain/action"
)

// ActionDTO represents an action in API responses
type ActionDTO struct {
	ID           string     `json:"id"`
	AlertID      string     `json:"alert_id"`
	Kind         string     `json:"kind"`
	TargetEntity string     `json:"target_entity"`
	Status       string     `json:"status"`
	Reason       string     `json:"reason,omitempty"`
	Actor        string     `json:"actor,omitempty"`
	ProposedAt   time.Time  `json:"proposed_at"`
	ExecutedAt   *time.Time `json:"executed_at,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// NewActionDTO maps a domain action to its API representation
func NewActionDTO(a *action.Action) ActionDTO {
	d := ActionDTO{
		ID:           a.ID,
		AlertID:      a.AlertID,
		Kind:         a.Kind,
		TargetEntity: a.TargetEntity,
		Status:       a.Status,
		Reason:       a.Reason,
		Actor:        a.Actor,
		ProposedAt:   a.ProposedAt,
	}
	if !a.ExecutedAt.IsZero() {
		t := a.ExecutedAt
		d.ExecutedAt = &t
	}
	if !a.ResolvedAt.IsZero() {
		t := a.ResolvedAt
		d.ResolvedAt = &t
	}
	return d
}

// RejectActionRequest carries the analyst's reason for declining
type RejectActionRequest struct {
	Reason string `json:"reason" validate:"required"`
}
