package analyst

import "context"

// Repository defines the interface for analyst account data access
type Repository interface {
	// Create creates a new analyst account
	Create(ctx context.Context, a *Analyst) error

	// GetByID retrieves an analyst by ID
	GetByID(ctx context.Context, id int64) (*Analyst, error)

	// GetByEmail retrieves an analyst by email
	GetByEmail(ctx context.Context, email string) (*Analyst, error)
}
