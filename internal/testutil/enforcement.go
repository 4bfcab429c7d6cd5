package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/sentinelops/triage/internal/domain/action"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/reasoning"
)

// MockEnforcer counts enforcement calls and fails the first FailApplies
// Apply invocations, which drives the retry and escalation paths.
type MockEnforcer struct {
	mu          sync.Mutex
	Applies     int
	Reverses    int
	FailApplies int
	ReverseErr  error
	Material    string
}

func (m *MockEnforcer) Apply(ctx context.Context, a *action.Action) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Applies++
	if m.Applies <= m.FailApplies {
		return "", context.DeadlineExceeded
	}
	return m.Material, nil
}

func (m *MockEnforcer) Reverse(ctx context.Context, a *action.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reverses++
	return m.ReverseErr
}

func (m *MockEnforcer) ApplyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Applies
}

func (m *MockEnforcer) ReverseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Reverses
}

// MockRestoreStore records retained credential material in memory
type MockRestoreStore struct {
	mu    sync.Mutex
	Saved map[string]string

	SaveErr   error
	DeleteErr error
}

func NewMockRestoreStore() *MockRestoreStore {
	return &MockRestoreStore{Saved: make(map[string]string)}
}

func (m *MockRestoreStore) Save(ctx context.Context, actionID, kind, material string, revokedAt time.Time) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved[actionID] = material
	return nil
}

func (m *MockRestoreStore) Delete(ctx context.Context, actionID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Saved, actionID)
	return nil
}

func (m *MockRestoreStore) Has(actionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Saved[actionID]
	return ok
}

// MockInvestigator returns a fixed risk assessment, or an error
type MockInvestigator struct {
	Assessment *reasoning.RiskAssessment
	Err        error
	Calls      int
}

func (m *MockInvestigator) Investigate(ctx context.Context, a *alert.Alert) (*reasoning.RiskAssessment, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Assessment, nil
}
