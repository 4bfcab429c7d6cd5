package action

import (
	"context"
	"time"
)

// Repository defines the interface for action data access
type Repository interface {
	// Create persists a newly proposed action
	Create(ctx context.Context, action *Action) error

	// GetByID retrieves an action by ID
	GetByID(ctx context.Context, id string) (*Action, error)

	// Update persists status, reason, actor and timestamps
	Update(ctx context.Context, action *Action) error

	// List retrieves actions with filters and pagination
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Action, int64, error)

	// ListExecutedBefore returns executed actions of auto-expiring kinds
	// whose execution time is older than the cutoff; used by the expiry
	// sweeper to recover timers lost across restarts
	ListExecutedBefore(ctx context.Context, kind string, cutoff time.Time) ([]*Action, error)

	// CountByStatus counts actions grouped by status
	CountByStatus(ctx context.Context) (map[string]int, error)
}
