package analyst

import "context"

// Service defines the interface for analyst authentication
type Service interface {
	// Register creates a new analyst account with a hashed password
	Register(ctx context.Context, email, name, password, role string) (*Analyst, error)

	// Login verifies credentials and returns a signed access token
	Login(ctx context.Context, email, password string) (string, *Analyst, error)

	// GetByID retrieves an analyst by ID
	GetByID(ctx context.Context, id int64) (*Analyst, error)
}
