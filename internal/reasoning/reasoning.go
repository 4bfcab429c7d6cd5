package reasoning

import (
	"context"

	"github.com/sentinelops/triage/internal/domain/alert"
)

// RiskAssessment is the opaque reasoning collaborator's judgment on an
// alert. The safety gate consumes only RiskScore, and only as a
// downgrade-only signal; the narrative is stored for analysts.
type RiskAssessment struct {
	RiskScore float64 `json:"risk_score"`
	Narrative string  `json:"narrative"`
}

// Investigator is the external reasoning collaborator. Investigate may
// error or time out; callers treat both as "no external signal" and
// proceed on deterministic checks alone.
type Investigator interface {
	Investigate(ctx context.Context, a *alert.Alert) (*RiskAssessment, error)
}

// Noop is the investigator for air-gapped installs and tests: it always
// reports no external signal.
type Noop struct{}

func (Noop) Investigate(ctx context.Context, a *alert.Alert) (*RiskAssessment, error) {
	return nil, nil
}
