package dto

import "time"

// EventDTO represents one security event in an ingest request
type EventDTO struct {
	EntityID   string                 `json:"entity_id" validate:"required"`
	EntityKind string                 `json:"entity_kind" validate:"required,oneof=user ip service"`
	Type       string                 `json:"type" validate:"required"`
	Timestamp  time.Time              `json:"timestamp" validate:"required"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// IngestRequest represents a batch of events for evaluation
type IngestRequest struct {
	Events []EventDTO `json:"events" validate:"required,min=1,dive"`
}

// IngestResponse acknowledges accepted events
type IngestResponse struct {
	Accepted int `json:"accepted"`
}
