package services

import (
	"context"
	"time"

	"github.com/sentinelops/triage/internal/breaker"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/logger"
)

// AlertService implements alert.Service. Resolving an alert feeds the
// circuit breaker's false-positive counter, so a run of bad resolutions
// can disable automatic execution from here.
type AlertService struct {
	repo    alert.Repository
	breaker *breaker.Breaker
	logger  *logger.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(repo alert.Repository, brk *breaker.Breaker, log *logger.Logger) *AlertService {
	return &AlertService{repo: repo, breaker: brk, logger: log}
}

func (s *AlertService) Create(ctx context.Context, a *alert.Alert) error {
	return s.repo.Create(ctx, a)
}

func (s *AlertService) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	return s.repo.GetByID(ctx, id)
}

// Resolve records the analyst verdict on an alert. An alert may only be
// resolved once; a second resolution is a conflict, not an overwrite.
func (s *AlertService) Resolve(ctx context.Context, id string, outcome string, analystID string) error {
	if outcome != alert.OutcomeTruePositive && outcome != alert.OutcomeFalsePositive {
		return errors.BadRequest("outcome must be true_positive or false_positive")
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Outcome != alert.OutcomeUnknown {
		return errors.Conflict("alert already resolved as " + a.Outcome)
	}

	if err := s.repo.SetOutcome(ctx, id, outcome); err != nil {
		return err
	}
	s.breaker.RecordResolution(outcome == alert.OutcomeFalsePositive, time.Now())

	s.logger.WithFields(map[string]interface{}{
		"alert_id": id,
		"outcome":  outcome,
		"analyst":  analystID,
	}).Info("Alert resolved")
	return nil
}

func (s *AlertService) List(ctx context.Context, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *AlertService) Summary(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByOutcome(ctx)
}
