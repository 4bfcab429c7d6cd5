package audit

import "context"

// Service defines the interface for audit business logic
type Service interface {
	Sink

	// List retrieves records with filters and pagination
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Record, int64, error)
}
