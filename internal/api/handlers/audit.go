package handlers

import (
	"net/http"

	"github.com/sentinelops/triage/internal/domain/audit"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/utils"
)

// AuditHandler serves the append-only decision trail
type AuditHandler struct {
	service audit.Service
	logger  *logger.Logger
}

func NewAuditHandler(service audit.Service, log *logger.Logger) *AuditHandler {
	return &AuditHandler{service: service, logger: log}
}

// List returns audit records, newest first
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)

	filter := audit.Filter{
		ActionID: r.URL.Query().Get("action_id"),
		Actor:    r.URL.Query().Get("actor"),
		Decision: r.URL.Query().Get("decision"),
	}

	records, total, err := h.service.List(r.Context(), filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(records, p.Page, p.PageSize, total))
}
