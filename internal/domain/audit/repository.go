package audit

import "context"

// Repository defines the interface for audit record persistence
type Repository interface {
	// Append persists a new record. Records are never updated or deleted.
	Append(ctx context.Context, record *Record) error

	// List retrieves records with filters and pagination, newest first
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Record, int64, error)
}

// Sink is the narrow interface the engine writes through. Append must
// return within a bounded time; the implementation owns the timeout.
type Sink interface {
	Append(ctx context.Context, record *Record) error
}
