package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sentinelops/triage/internal/domain/action"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/domain/analyst"
	"github.com/sentinelops/triage/internal/domain/audit"
	"github.com/sentinelops/triage/internal/pkg/errors"
)

// MockAlertRepository is a map-backed alert.Repository for tests
type MockAlertRepository struct {
	mu     sync.Mutex
	Alerts map[string]*alert.Alert

	CreateErr     error
	GetErr        error
	SetOutcomeErr error
	ListErr       error
}

func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{Alerts: make(map[string]*alert.Alert)}
}

func (m *MockAlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.Alerts[a.ID] = &cp
	return nil
}

func (m *MockAlertRepository) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Alerts[id]
	if !ok {
		return nil, errors.NotFound("alert not found")
	}
	cp := *a
	return &cp, nil
}

func (m *MockAlertRepository) SetOutcome(ctx context.Context, id string, outcome string) error {
	if m.SetOutcomeErr != nil {
		return m.SetOutcomeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Alerts[id]
	if !ok {
		return errors.NotFound("alert not found")
	}
	a.Outcome = outcome
	return nil
}

func (m *MockAlertRepository) List(ctx context.Context, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	if m.ListErr != nil {
		return nil, 0, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*alert.Alert
	for _, a := range m.Alerts {
		if filter.ThreatType != "" && a.ThreatType != filter.ThreatType {
			continue
		}
		if filter.EntityID != "" && a.EntityID != filter.EntityID {
			continue
		}
		if filter.Outcome != "" && a.Outcome != filter.Outcome {
			continue
		}
		if a.Confidence < filter.MinConfidence {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := int64(len(out))
	if offset > len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *MockAlertRepository) CountByOutcome(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, a := range m.Alerts {
		counts[a.Outcome]++
	}
	return counts, nil
}

// MockActionRepository is a map-backed action.Repository for tests
type MockActionRepository struct {
	mu      sync.Mutex
	Actions map[string]*action.Action

	CreateErr error
	GetErr    error
	UpdateErr error
	ListErr   error
}

func NewMockActionRepository() *MockActionRepository {
	return &MockActionRepository{Actions: make(map[string]*action.Action)}
}

func (m *MockActionRepository) Create(ctx context.Context, a *action.Action) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.Actions[a.ID] = &cp
	return nil
}

func (m *MockActionRepository) GetByID(ctx context.Context, id string) (*action.Action, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Actions[id]
	if !ok {
		return nil, errors.NotFound("action not found")
	}
	cp := *a
	return &cp, nil
}

func (m *MockActionRepository) Update(ctx context.Context, a *action.Action) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Actions[a.ID]; !ok {
		return errors.NotFound("action not found")
	}
	cp := *a
	m.Actions[a.ID] = &cp
	return nil
}

func (m *MockActionRepository) List(ctx context.Context, filter action.Filter, limit, offset int) ([]*action.Action, int64, error) {
	if m.ListErr != nil {
		return nil, 0, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*action.Action
	for _, a := range m.Actions {
		if filter.AlertID != "" && a.AlertID != filter.AlertID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && a.Kind != filter.Kind {
			continue
		}
		if filter.TargetEntity != "" && a.TargetEntity != filter.TargetEntity {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProposedAt.After(out[j].ProposedAt) })

	total := int64(len(out))
	if offset > len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *MockActionRepository) ListExecutedBefore(ctx context.Context, kind string, cutoff time.Time) ([]*action.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*action.Action
	for _, a := range m.Actions {
		if a.Kind == kind && a.Status == action.StatusExecuted && a.ExecutedAt.Before(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockActionRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, a := range m.Actions {
		counts[a.Status]++
	}
	return counts, nil
}

// MockAuditRepository is an append-only in-memory audit.Repository
type MockAuditRepository struct {
	mu      sync.Mutex
	Records []*audit.Record

	AppendErr error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Append(ctx context.Context, rec *audit.Record) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	if cp.ID == "" {
		cp.ID = fmt.Sprintf("audit-%d", len(m.Records)+1)
	}
	m.Records = append(m.Records, &cp)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Record, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*audit.Record
	for _, r := range m.Records {
		if filter.ActionID != "" && r.ActionID != filter.ActionID {
			continue
		}
		if filter.Actor != "" && r.Actor != filter.Actor {
			continue
		}
		if filter.Decision != "" && r.Decision != filter.Decision {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}

	total := int64(len(out))
	if offset > len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

// ForAction returns the appended records for one action, oldest first
func (m *MockAuditRepository) ForAction(actionID string) []*audit.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*audit.Record
	for _, r := range m.Records {
		if r.ActionID == actionID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

// MockAnalystRepository is a map-backed analyst.Repository for tests
type MockAnalystRepository struct {
	mu       sync.Mutex
	Analysts map[int64]*analyst.Analyst
	NextID   int64

	CreateErr error
	GetErr    error
}

func NewMockAnalystRepository() *MockAnalystRepository {
	return &MockAnalystRepository{Analysts: make(map[int64]*analyst.Analyst), NextID: 1}
}

func (m *MockAnalystRepository) Create(ctx context.Context, a *analyst.Analyst) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.NextID
	m.NextID++
	cp := *a
	m.Analysts[a.ID] = &cp
	return nil
}

func (m *MockAnalystRepository) GetByID(ctx context.Context, id int64) (*analyst.Analyst, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Analysts[id]
	if !ok {
		return nil, errors.NotFound("analyst not found")
	}
	cp := *a
	return &cp, nil
}

func (m *MockAnalystRepository) GetByEmail(ctx context.Context, email string) (*analyst.Analyst, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Analysts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, errors.NotFound("analyst not found")
}
