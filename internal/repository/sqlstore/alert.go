package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/pkg/errors"
)

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) alert.Repository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	signals, err := json.Marshal(a.Signals)
	if err != nil {
		return errors.DatabaseError("Failed to encode alert signals", err)
	}

	query := `
		INSERT INTO alerts (id, threat_type, entity_id, entity_kind, confidence, blast_radius, signals, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.ThreatType, a.EntityID, string(a.EntityKind), a.Confidence,
		string(a.BlastRadius), string(signals), a.Outcome, a.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create alert", err)
	}
	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	query := `
		SELECT id, threat_type, entity_id, entity_kind, confidence, blast_radius, signals, outcome, created_at
		FROM alerts WHERE id = ?
	`
	a, err := scanAlert(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Alert")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get alert", err)
	}
	return a, nil
}

func (r *AlertRepository) SetOutcome(ctx context.Context, id string, outcome string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET outcome = ? WHERE id = ?`, outcome, id)
	if err != nil {
		return errors.DatabaseError("Failed to set alert outcome", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Alert")
	}
	return nil
}

func (r *AlertRepository) List(ctx context.Context, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	var conds []string
	var args []interface{}

	if filter.ThreatType != "" {
		conds = append(conds, "threat_type = ?")
		args = append(args, filter.ThreatType)
	}
	if filter.EntityID != "" {
		conds = append(conds, "entity_id = ?")
		args = append(args, filter.EntityID)
	}
	if filter.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, filter.Outcome)
	}
	if filter.MinConfidence > 0 {
		conds = append(conds, "confidence >= ?")
		args = append(args, filter.MinConfidence)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alerts"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count alerts", err)
	}

	query := `
		SELECT id, threat_type, entity_id, entity_kind, confidence, blast_radius, signals, outcome, created_at
		FROM alerts` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list alerts", err)
	}
	defer rows.Close()

	var out []*alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan alert", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *AlertRepository) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM alerts GROUP BY outcome`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count alerts by outcome", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan outcome count", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row rowScanner) (*alert.Alert, error) {
	var a alert.Alert
	var kind, radius, signals, createdAt string
	if err := row.Scan(&a.ID, &a.ThreatType, &a.EntityID, &kind, &a.Confidence,
		&radius, &signals, &a.Outcome, &createdAt); err != nil {
		return nil, err
	}
	a.EntityKind = kind
	a.BlastRadius = alert.Radius(radius)
	if err := json.Unmarshal([]byte(signals), &a.Signals); err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &a, nil
}
