package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/sentinelops/triage/internal/pkg/errors"
)

// RestoreRepository persists revoked credential material during the
// restore window. Rows are deleted on reversal or by the retention purge.
type RestoreRepository struct {
	db *sql.DB
}

func NewRestoreRepository(db *sql.DB) *RestoreRepository {
	return &RestoreRepository{db: db}
}

func (r *RestoreRepository) Save(ctx context.Context, actionID, kind, material string, revokedAt time.Time) error {
	query := `
		INSERT INTO revoked_credentials (action_id, kind, material, revoked_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		actionID, kind, material, revokedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.DatabaseError("Failed to retain revoked credential", err)
	}
	return nil
}

func (r *RestoreRepository) Delete(ctx context.Context, actionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM revoked_credentials WHERE action_id = ?`, actionID)
	if err != nil {
		return errors.DatabaseError("Failed to delete revoked credential", err)
	}
	return nil
}

// Get returns the retained material for an action, if still held
func (r *RestoreRepository) Get(ctx context.Context, actionID string) (string, error) {
	var material string
	err := r.db.QueryRowContext(ctx,
		`SELECT material FROM revoked_credentials WHERE action_id = ?`, actionID).Scan(&material)
	if err == sql.ErrNoRows {
		return "", errors.NotFound("Revoked credential")
	}
	if err != nil {
		return "", errors.DatabaseError("Failed to get revoked credential", err)
	}
	return material, nil
}

// PurgeOlderThan permanently deletes material past the retention cutoff
func (r *RestoreRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM revoked_credentials WHERE revoked_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, errors.DatabaseError("Failed to purge revoked credentials", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.DatabaseError("Failed to get affected rows", err)
	}
	return n, nil
}
