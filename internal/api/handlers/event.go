package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sentinelops/triage/internal/api/dto"
	"github.com/sentinelops/triage/internal/domain/event"
	"github.com/sentinelops/triage/internal/pipeline"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/utils"
	"github.com/sentinelops/triage/internal/pkg/validator"
)

// EventHandler accepts batches of security events for evaluation
type EventHandler struct {
	pipeline  *pipeline.Pipeline
	logger    *logger.Logger
	validator *validator.Validator
}

func NewEventHandler(p *pipeline.Pipeline, log *logger.Logger, val *validator.Validator) *EventHandler {
	return &EventHandler{pipeline: p, logger: log, validator: val}
}

// Ingest enqueues events for asynchronous evaluation. Events for the
// same entity are evaluated in the order they appear in the batch.
func (h *EventHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req dto.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	for _, e := range req.Events {
		h.pipeline.Enqueue(event.Event{
			EntityID:   e.EntityID,
			EntityKind: event.Kind(e.EntityKind),
			Type:       e.Type,
			Timestamp:  e.Timestamp,
			Attributes: e.Attributes,
		})
	}

	utils.WriteSuccess(w, http.StatusAccepted, dto.IngestResponse{
		Accepted: len(req.Events),
	})
}
