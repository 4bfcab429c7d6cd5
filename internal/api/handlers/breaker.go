package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sentinelops/triage/internal/api/dto"
	"github.com/sentinelops/triage/internal/api/middleware"
	"github.com/sentinelops/triage/internal/breaker"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/utils"
	"github.com/sentinelops/triage/internal/pkg/validator"
)

// BreakerHandler exposes circuit breaker state and manual overrides
type BreakerHandler struct {
	breaker   *breaker.Breaker
	logger    *logger.Logger
	validator *validator.Validator
}

func NewBreakerHandler(brk *breaker.Breaker, log *logger.Logger, val *validator.Validator) *BreakerHandler {
	return &BreakerHandler{breaker: brk, logger: log, validator: val}
}

// Get returns the current breaker state and rolling ratios
func (h *BreakerHandler) Get(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, h.breaker.Snapshot(time.Now()))
}

// Trip disables automatic execution
func (h *BreakerHandler) Trip(w http.ResponseWriter, r *http.Request) {
	var req dto.TripBreakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	analystID, _ := middleware.GetAnalystID(r)
	h.breaker.Trip(strconv.FormatInt(analystID, 10), req.Reason, time.Now())

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Circuit breaker tripped", h.breaker.Snapshot(time.Now()))
}

// Reset re-enables automatic execution. The breaker refuses while either
// health ratio is still above its threshold.
func (h *BreakerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	analystID, _ := middleware.GetAnalystID(r)

	if err := h.breaker.Reset(strconv.FormatInt(analystID, 10), time.Now()); err != nil {
		utils.WriteError(w, errors.Conflict(err.Error()))
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Circuit breaker reset", h.breaker.Snapshot(time.Now()))
}
