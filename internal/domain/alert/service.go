package alert

import "context"

// Service defines the interface for alert business logic
type Service interface {
	// Create persists a new alert
	Create(ctx context.Context, alert *Alert) error

	// GetByID retrieves an alert by ID
	GetByID(ctx context.Context, id string) (*Alert, error)

	// Resolve records the analyst review outcome. Resolving as
	// false_positive feeds the circuit breaker's health counters.
	Resolve(ctx context.Context, id string, outcome string, analystID string) error

	// List retrieves alerts with filters and pagination
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Alert, int64, error)

	// Summary counts alerts grouped by outcome
	Summary(ctx context.Context) (map[string]int, error)
}
