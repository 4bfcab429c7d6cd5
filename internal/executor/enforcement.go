package executor

import (
	"context"

	"github.com/sentinelops/triage/internal/domain/action"
	"github.com/sentinelops/triage/internal/pkg/logger"
)

// Enforcer is the external enforcement collaborator. Apply performs the
// action's side effect and returns any revoked credential material worth
// retaining for the restore window. Reverse must be idempotent: reversing
// an already-reversed action succeeds without effect.
type Enforcer interface {
	Apply(ctx context.Context, a *action.Action) (revokedMaterial string, err error)
	Reverse(ctx context.Context, a *action.Action) error
}

// LogEnforcer is the default enforcement backend for deployments without
// a wired control plane: every call succeeds and is logged. Real installs
// replace it with an integration against their IdP or edge.
type LogEnforcer struct {
	logger *logger.Logger
}

// NewLogEnforcer creates a log-only enforcement backend
func NewLogEnforcer(log *logger.Logger) *LogEnforcer {
	return &LogEnforcer{logger: log}
}

func (e *LogEnforcer) Apply(ctx context.Context, a *action.Action) (string, error) {
	e.logger.WithFields(map[string]interface{}{
		"action_id": a.ID,
		"kind":      a.Kind,
		"target":    a.TargetEntity,
	}).Info("Enforcement apply")
	return "", nil
}

func (e *LogEnforcer) Reverse(ctx context.Context, a *action.Action) error {
	e.logger.WithFields(map[string]interface{}{
		"action_id": a.ID,
		"kind":      a.Kind,
		"target":    a.TargetEntity,
	}).Info("Enforcement reverse")
	return nil
}
