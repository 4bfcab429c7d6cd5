package analyst

import "time"

// Analyst is an operator account for the approval API and CLI
type Analyst struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Analyst roles
const (
	RoleAnalyst = "analyst"
	RoleAdmin   = "admin"
)
