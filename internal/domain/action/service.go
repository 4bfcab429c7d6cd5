package action

import "context"

// Service defines the interface for action business logic. Approve and
// Rollback are invoked by analysts; both follow the same idempotent
// execution and reversal rules as the automatic path.
type Service interface {
	// GetByID retrieves an action by ID
	GetByID(ctx context.Context, id string) (*Action, error)

	// List retrieves actions with filters and pagination
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Action, int64, error)

	// Approve executes an escalated action on behalf of an analyst
	Approve(ctx context.Context, id string, analystID string) error

	// Reject terminally rejects an escalated action
	Reject(ctx context.Context, id string, analystID string, reason string) error

	// Rollback reverses an executed action. Idempotent: rolling back an
	// already-reversed action is a no-op.
	Rollback(ctx context.Context, id string, analystID string) error

	// Summary counts actions grouped by status
	Summary(ctx context.Context) (map[string]int, error)
}
