package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelops/triage/internal/domain/audit"
	"github.com/sentinelops/triage/internal/pkg/logger"
)

// appendTimeout bounds how long an audit append may hold up a decision
// path before the failure is reported and dropped
const appendTimeout = 2 * time.Second

// AuditService implements audit.Service
type AuditService struct {
	repo   audit.Repository
	logger *logger.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo audit.Repository, log *logger.Logger) *AuditService {
	return &AuditService{repo: repo, logger: log}
}

// Append persists a record within a bounded time. IDs and timestamps are
// filled in when the caller left them empty.
func (s *AuditService) Append(ctx context.Context, rec *audit.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	actx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()
	return s.repo.Append(actx, rec)
}

func (s *AuditService) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Record, int64, error) {
	return s.repo.List(ctx, filter, limit, offset)
}
