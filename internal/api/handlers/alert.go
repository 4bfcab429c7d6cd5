package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sentinelops/triage/internal/api/dto"
	"github.com/sentinelops/triage/internal/api/middleware"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/utils"
	"github.com/sentinelops/triage/internal/pkg/validator"
)

type AlertHandler struct {
	service   alert.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewAlertHandler(service alert.Service, log *logger.Logger, val *validator.Validator) *AlertHandler {
	return &AlertHandler{service: service, logger: log, validator: val}
}

// List returns alerts with pagination and filtering
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)

	minConfidence, _ := strconv.ParseFloat(r.URL.Query().Get("min_confidence"), 64)
	filter := alert.Filter{
		ThreatType:    r.URL.Query().Get("threat_type"),
		EntityID:      r.URL.Query().Get("entity_id"),
		Outcome:       r.URL.Query().Get("outcome"),
		MinConfidence: minConfidence,
	}

	alerts, total, err := h.service.List(r.Context(), filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	dtos := make([]dto.AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = dto.NewAlertDTO(a)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, p.Page, p.PageSize, total))
}

// Get returns a single alert by ID
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewAlertDTO(a))
}

// Resolve records the analyst review outcome for an alert
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	analystID, _ := middleware.GetAnalystID(r)
	id := chi.URLParam(r, "id")

	if err := h.service.Resolve(r.Context(), id, req.Outcome, strconv.FormatInt(analystID, 10)); err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Alert resolved", nil)
}

// GetSummary returns alert counts grouped by outcome
func (h *AlertHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Summary(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, counts)
}
