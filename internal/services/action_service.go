package services

import (
	"context"

	"github.com/sentinelops/triage/internal/domain/action"
	"github.com/sentinelops/triage/internal/executor"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/logger"
)

// ActionService implements action.Service. Analyst approvals run through
// the same executor as the automatic path, so retries, credential
// retention and auto-expiry behave identically either way.
type ActionService struct {
	repo     action.Repository
	executor *executor.Executor
	logger   *logger.Logger
}

// NewActionService creates a new action service
func NewActionService(repo action.Repository, exec *executor.Executor, log *logger.Logger) *ActionService {
	return &ActionService{repo: repo, executor: exec, logger: log}
}

func (s *ActionService) GetByID(ctx context.Context, id string) (*action.Action, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ActionService) List(ctx context.Context, filter action.Filter, limit, offset int) ([]*action.Action, int64, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Approve executes an escalated action under the analyst's identity.
// Only escalated actions are approvable; everything else is a transition
// error.
func (s *ActionService) Approve(ctx context.Context, id string, analystID string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != action.StatusEscalated {
		return errors.InvalidTransition(a.Status, action.StatusExecuted)
	}

	if err := s.executor.Execute(ctx, a, analystID); err != nil {
		return err
	}
	s.logger.WithFields(map[string]interface{}{
		"action_id": id,
		"analyst":   analystID,
	}).Info("Escalated action approved and executed")
	return nil
}

// Reject terminally declines an escalated action
func (s *ActionService) Reject(ctx context.Context, id string, analystID string, reason string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !action.CanTransition(a.Status, action.StatusRejected) {
		return errors.InvalidTransition(a.Status, action.StatusRejected)
	}

	a.Status = action.StatusRejected
	a.Reason = reason
	a.Actor = analystID
	if err := s.repo.Update(ctx, a); err != nil {
		return err
	}
	s.logger.WithFields(map[string]interface{}{
		"action_id": id,
		"analyst":   analystID,
	}).Info("Escalated action rejected")
	return nil
}

// Rollback reverses an executed action on analyst request
func (s *ActionService) Rollback(ctx context.Context, id string, analystID string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.executor.Rollback(ctx, a, analystID, executor.TriggerManual)
}

func (s *ActionService) Summary(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByStatus(ctx)
}
