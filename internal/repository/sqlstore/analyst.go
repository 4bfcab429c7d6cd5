package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/sentinelops/triage/internal/domain/analyst"
	"github.com/sentinelops/triage/internal/pkg/errors"
)

type AnalystRepository struct {
	db *sql.DB
}

func NewAnalystRepository(db *sql.DB) analyst.Repository {
	return &AnalystRepository{db: db}
}

func (r *AnalystRepository) Create(ctx context.Context, a *analyst.Analyst) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO analysts (email, name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		a.Email, a.Name, a.PasswordHash, a.Role, a.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create analyst", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get analyst ID", err)
	}
	a.ID = id
	return nil
}

func (r *AnalystRepository) GetByID(ctx context.Context, id int64) (*analyst.Analyst, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

func (r *AnalystRepository) GetByEmail(ctx context.Context, email string) (*analyst.Analyst, error) {
	return r.get(ctx, `WHERE email = ?`, email)
}

func (r *AnalystRepository) get(ctx context.Context, where string, arg interface{}) (*analyst.Analyst, error) {
	query := `SELECT id, email, name, password_hash, role, created_at FROM analysts ` + where

	var a analyst.Analyst
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Analyst")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get analyst", err)
	}
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}
