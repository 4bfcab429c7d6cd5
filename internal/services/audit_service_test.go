package services

import (
	"context"
	"testing"
	"time"

	"github.com/sentinelops/triage/internal/domain/audit"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/testutil"
)

func TestAuditService_AppendFillsDefaults(t *testing.T) {
	repo := testutil.NewMockAuditRepository()
	service := NewAuditService(repo, logger.New(logger.Config{Level: "error", Format: "json"}))

	rec := &audit.Record{
		ActionID:  "act-1",
		Decision:  "escalate",
		Rationale: "confidence 80 below auto-execute threshold 90 for block_ip",
		Actor:     audit.ActorSystem,
	}
	if err := service.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if rec.ID == "" {
		t.Error("Append() left the ID empty")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Append() left CreatedAt zero")
	}
}

func TestAuditService_AppendKeepsCallerFields(t *testing.T) {
	repo := testutil.NewMockAuditRepository()
	service := NewAuditService(repo, logger.New(logger.Config{Level: "error", Format: "json"}))

	at := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)
	rec := &audit.Record{ID: "rec-1", ActionID: "act-1", Decision: "execute", Actor: "7", CreatedAt: at}
	if err := service.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if rec.ID != "rec-1" || !rec.CreatedAt.Equal(at) {
		t.Errorf("Append() rewrote caller-set fields: %+v", rec)
	}
}

func TestAuditService_ListFilters(t *testing.T) {
	repo := testutil.NewMockAuditRepository()
	service := NewAuditService(repo, logger.New(logger.Config{Level: "error", Format: "json"}))
	ctx := context.Background()

	for _, rec := range []*audit.Record{
		{ActionID: "act-1", Decision: "execute", Actor: audit.ActorSystem},
		{ActionID: "act-1", Decision: "rolled_back", Actor: "7"},
		{ActionID: "act-2", Decision: "escalate", Actor: audit.ActorSystem},
	} {
		if err := service.Append(ctx, rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	recs, total, err := service.List(ctx, audit.Filter{ActionID: "act-1"}, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(recs) != 2 {
		t.Errorf("List(act-1) = %d records, total %d, want 2", len(recs), total)
	}

	recs, _, _ = service.List(ctx, audit.Filter{Actor: "7"}, 10, 0)
	if len(recs) != 1 || recs[0].Decision != "rolled_back" {
		t.Errorf("List(actor=7) = %+v", recs)
	}
}
