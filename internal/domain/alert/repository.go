package alert

import "context"

// Repository defines the interface for alert data access
type Repository interface {
	// Create persists a new alert with its signals
	Create(ctx context.Context, alert *Alert) error

	// GetByID retrieves an alert by ID
	GetByID(ctx context.Context, id string) (*Alert, error)

	// SetOutcome records the analyst review outcome
	SetOutcome(ctx context.Context, id string, outcome string) error

	// List retrieves alerts with filters and pagination
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Alert, int64, error)

	// CountByOutcome counts alerts grouped by outcome
	CountByOutcome(ctx context.Context) (map[string]int, error)
}
