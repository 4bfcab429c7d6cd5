package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sentinelops/triage/internal/domain/action"
	"github.com/sentinelops/triage/internal/pkg/errors"
)

type ActionRepository struct {
	db *sql.DB
}

func NewActionRepository(db *sql.DB) action.Repository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) Create(ctx context.Context, a *action.Action) error {
	query := `
		INSERT INTO actions (id, alert_id, kind, target_entity, status, reason, actor, proposed_at, executed_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.AlertID, a.Kind, a.TargetEntity, a.Status, a.Reason, a.Actor,
		formatTime(a.ProposedAt), formatTime(a.ExecutedAt), formatTime(a.ResolvedAt),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create action", err)
	}
	return nil
}

func (r *ActionRepository) GetByID(ctx context.Context, id string) (*action.Action, error) {
	query := `
		SELECT id, alert_id, kind, target_entity, status, reason, actor, proposed_at, executed_at, resolved_at
		FROM actions WHERE id = ?
	`
	a, err := scanAction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Action")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get action", err)
	}
	return a, nil
}

func (r *ActionRepository) Update(ctx context.Context, a *action.Action) error {
	query := `
		UPDATE actions SET status = ?, reason = ?, actor = ?, executed_at = ?, resolved_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		a.Status, a.Reason, a.Actor, formatTime(a.ExecutedAt), formatTime(a.ResolvedAt), a.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update action", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Action")
	}
	return nil
}

func (r *ActionRepository) List(ctx context.Context, filter action.Filter, limit, offset int) ([]*action.Action, int64, error) {
	var conds []string
	var args []interface{}

	if filter.AlertID != "" {
		conds = append(conds, "alert_id = ?")
		args = append(args, filter.AlertID)
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.TargetEntity != "" {
		conds = append(conds, "target_entity = ?")
		args = append(args, filter.TargetEntity)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM actions"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count actions", err)
	}

	query := `
		SELECT id, alert_id, kind, target_entity, status, reason, actor, proposed_at, executed_at, resolved_at
		FROM actions` + where + ` ORDER BY proposed_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list actions", err)
	}
	defer rows.Close()

	var out []*action.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan action", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *ActionRepository) ListExecutedBefore(ctx context.Context, kind string, cutoff time.Time) ([]*action.Action, error) {
	query := `
		SELECT id, alert_id, kind, target_entity, status, reason, actor, proposed_at, executed_at, resolved_at
		FROM actions WHERE kind = ? AND status = ? AND executed_at != '' AND executed_at < ?
	`
	rows, err := r.db.QueryContext(ctx, query, kind, action.StatusExecuted, formatTime(cutoff))
	if err != nil {
		return nil, errors.DatabaseError("Failed to list overdue actions", err)
	}
	defer rows.Close()

	var out []*action.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan action", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ActionRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM actions GROUP BY status`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count actions by status", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan status count", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanAction(row rowScanner) (*action.Action, error) {
	var a action.Action
	var proposedAt, executedAt, resolvedAt string
	if err := row.Scan(&a.ID, &a.AlertID, &a.Kind, &a.TargetEntity, &a.Status,
		&a.Reason, &a.Actor, &proposedAt, &executedAt, &resolvedAt); err != nil {
		return nil, err
	}
	a.ProposedAt = parseTime(proposedAt)
	a.ExecutedAt = parseTime(executedAt)
	a.ResolvedAt = parseTime(resolvedAt)
	return &a, nil
}

// formatTime stores zero times as the empty string so lexicographic
// comparisons in SQL never match them
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
