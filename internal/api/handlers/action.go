package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sentinelops/triage/internal/api/dto"
	"github.com/sentinelops/triage/internal/api/middleware"
	"github.com/sentinelops/triage/internal/domain/action"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/utils"
	"github.com/sentinelops/triage/internal/pkg/validator"
)

type ActionHandler struct {
	service   action.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewActionHandler(service action.Service, log *logger.Logger, val *validator.Validator) *ActionHandler {
	return &ActionHandler{service: service, logger: log, validator: val}
}

// List returns actions with pagination and filtering
func (h *ActionHandler) List(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)

	filter := action.Filter{
		AlertID:      r.URL.Query().Get("alert_id"),
		Kind:         r.URL.Query().Get("kind"),
		Status:       r.URL.Query().Get("status"),
		TargetEntity: r.URL.Query().Get("target_entity"),
	}

	actions, total, err := h.service.List(r.Context(), filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	dtos := make([]dto.ActionDTO, len(actions))
	for i, a := range actions {
		dtos[i] = dto.NewActionDTO(a)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, p.Page, p.PageSize, total))
}

// Get returns a single action by ID
func (h *ActionHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewActionDTO(a))
}

// Approve executes an escalated action on the analyst's authority
func (h *ActionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	analystID, _ := middleware.GetAnalystID(r)
	id := chi.URLParam(r, "id")

	if err := h.service.Approve(r.Context(), id, strconv.FormatInt(analystID, 10)); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Action approved and executed", nil)
}

// Reject terminally declines an escalated action
func (h *ActionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req dto.RejectActionRequest
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

	if err := h.service.Reject(r.Context(), id, strconv.FormatInt(analystID, 10), req.Reason); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Action rejected", nil)
}

// Rollback reverses an executed action
func (h *ActionHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	analystID, _ := middleware.GetAnalystID(r)
	id := chi.URLParam(r, "id")

	if err := h.service.Rollback(r.Context(), id, strconv.FormatInt(analystID, 10)); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Action rolled back", nil)
}

// GetSummary returns action counts grouped by status
func (h *ActionHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Summary(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, counts)
}
