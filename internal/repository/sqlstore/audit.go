package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sentinelops/triage/internal/domain/audit"
	"github.com/sentinelops/triage/internal/pkg/errors"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, rec *audit.Record) error {
	query := `
		INSERT INTO audit_records (id, action_id, decision, rationale, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.ActionID, rec.Decision, rec.Rationale, rec.Actor,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.DatabaseError("Failed to append audit record", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Record, int64, error) {
	var conds []string
	var args []interface{}

	if filter.ActionID != "" {
		conds = append(conds, "action_id = ?")
		args = append(args, filter.ActionID)
	}
	if filter.Actor != "" {
		conds = append(conds, "actor = ?")
		args = append(args, filter.Actor)
	}
	if filter.Decision != "" {
		conds = append(conds, "decision = ?")
		args = append(args, filter.Decision)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count audit records", err)
	}

	query := `
		SELECT id, action_id, decision, rationale, actor, created_at
		FROM audit_records` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list audit records", err)
	}
	defer rows.Close()

	var out []*audit.Record
	for rows.Next() {
		var rec audit.Record
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.ActionID, &rec.Decision, &rec.Rationale, &rec.Actor, &createdAt); err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan audit record", err)
		}
		rec.CreatedAt = parseTime(createdAt)
		out = append(out, &rec)
	}
	return out, total, rows.Err()
}
