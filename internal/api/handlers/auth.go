package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sentinelops/triage/internal/api/dto"
	"github.com/sentinelops/triage/internal/api/middleware"
	"github.com/sentinelops/triage/internal/domain/analyst"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/utils"
	"github.com/sentinelops/triage/internal/pkg/validator"
)

// AuthHandler handles analyst registration and login
type AuthHandler struct {
	service   analyst.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewAuthHandler(service analyst.Service, log *logger.Logger, val *validator.Validator) *AuthHandler {
	return &AuthHandler{service: service, logger: log, validator: val}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	a, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password, req.Role)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, analystDTO(a))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	token, a, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.LoginResponse{
		AccessToken: token,
		Analyst:     analystDTO(a),
	})
}

// Me returns the authenticated analyst's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAnalystID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Not authenticated"))
		return
	}

	a, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, analystDTO(a))
}

func analystDTO(a *analyst.Analyst) dto.AnalystDTO {
	return dto.AnalystDTO{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}
