package executor

import (
	"context"
	"time"
)

// RestoreStore persists revoked credential material for the restore
// window before permanent deletion. The retention purge lives in the
// worker package.
type RestoreStore interface {
	// Save retains the material revoked by an executed action
	Save(ctx context.Context, actionID, kind, material string, revokedAt time.Time) error

	// Delete removes the material once the action is reversed
	Delete(ctx context.Context, actionID string) error
}
