package gate

import (
	"fmt"
	"time"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/action"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/pkg/metrics"
)

// Gate check names, in evaluation order
const (
	CheckConfidence      = "confidence"
	CheckBlastRadius     = "blast_radius"
	CheckProtectedEntity = "protected_entity"
	CheckRateLimit       = "rate_limit"
	CheckCircuitBreaker  = "circuit_breaker"
	CheckExternalRisk    = "external_risk"
)

// BreakerStatus is the breaker surface the gate needs: whether automatic
// execution is currently disabled, and why
type BreakerStatus interface {
	Tripped() (bool, string)
}

// Request carries one alert and its proposed action through the gate.
// ExternalRiskScore, when non-nil, is the reasoning collaborator's
// non-authoritative judgment; it can only make the outcome stricter.
type Request struct {
	Alert             *alert.Alert
	Action            *action.Action
	ExternalRiskScore *float64
	Now               time.Time
}

// check is one named safety check. A nil result means pass; a non-nil
// result short-circuits the run and becomes the gate's decision.
type check struct {
	name string
	run  func(req Request, cfg *config.EngineConfig) *Decision
}

// Gate turns an alert plus a proposed action into a Decision by running a
// fixed ordered list of named checks, stopping at the first failure.
type Gate struct {
	breaker BreakerStatus
	limiter *ActionRateLimiter
	checks  []check
}

// New creates a gate over the given breaker and rate limiter
func New(breaker BreakerStatus, limiter *ActionRateLimiter) *Gate {
	g := &Gate{breaker: breaker, limiter: limiter}
	g.checks = []check{
		{CheckConfidence, g.checkConfidence},
		{CheckBlastRadius, g.checkBlastRadius},
		{CheckProtectedEntity, g.checkProtectedEntity},
		{CheckRateLimit, g.checkRateLimit},
		// Always last: a tripped breaker must override every earlier pass
		{CheckCircuitBreaker, g.checkCircuitBreaker},
	}
	return g
}

// Evaluate runs the checks in order and short-circuits on the first
// failure. Only a full pass produces Execute, and an external risk score
// at or above the caution threshold downgrades that to Escalate.
func (g *Gate) Evaluate(req Request, cfg *config.EngineConfig) Decision {
	for _, c := range g.checks {
		if d := c.run(req, cfg); d != nil {
			metrics.RecordGateCheckFailure(c.name)
			metrics.RecordDecision(d.Verdict.String(), req.Action.Kind)
			return *d
		}
	}

	if req.ExternalRiskScore != nil && *req.ExternalRiskScore >= cfg.Confidence.ExternalRiskCaution {
		d := Escalate(CheckExternalRisk, fmt.Sprintf(
			"external risk score %.0f at or above caution threshold %.0f",
			*req.ExternalRiskScore, cfg.Confidence.ExternalRiskCaution))
		metrics.RecordGateCheckFailure(CheckExternalRisk)
		metrics.RecordDecision(d.Verdict.String(), req.Action.Kind)
		return d
	}

	metrics.RecordDecision(VerdictExecute.String(), req.Action.Kind)
	return Execute()
}

func (g *Gate) checkConfidence(req Request, cfg *config.EngineConfig) *Decision {
	threshold := cfg.AutoExecuteThreshold(req.Action.Kind)
	confidence := req.Alert.Confidence

	if confidence >= threshold {
		return nil
	}
	if confidence < cfg.Confidence.LowWater {
		d := LogOnly(CheckConfidence, fmt.Sprintf(
			"confidence %.0f below low-water mark %.0f", confidence, cfg.Confidence.LowWater))
		return &d
	}
	d := Escalate(CheckConfidence, fmt.Sprintf(
		"confidence %.0f below auto-execute threshold %.0f for %s",
		confidence, threshold, req.Action.Kind))
	return &d
}

func (g *Gate) checkBlastRadius(req Request, cfg *config.EngineConfig) *Decision {
	if req.Alert.BlastRadius == alert.RadiusSingleUser {
		return nil
	}
	d := Escalate(CheckBlastRadius, fmt.Sprintf(
		"blast radius %s exceeds single_user", req.Alert.BlastRadius))
	return &d
}

// checkProtectedEntity cannot be bypassed by any confidence value or any
// other signal
func (g *Gate) checkProtectedEntity(req Request, cfg *config.EngineConfig) *Decision {
	if !cfg.IsProtected(req.Action.TargetEntity) {
		return nil
	}
	d := Escalate(CheckProtectedEntity, fmt.Sprintf(
		"target entity %s is protected", req.Action.TargetEntity))
	return &d
}

func (g *Gate) checkRateLimit(req Request, cfg *config.EngineConfig) *Decision {
	if g.limiter.Allow(req.Action.TargetEntity, req.Action.Kind, cfg.RateLimit, req.Now) {
		return nil
	}
	d := Escalate(CheckRateLimit, fmt.Sprintf(
		"executed-action rate limit reached for entity %s (caps %d/hour, %d/minute per kind)",
		req.Action.TargetEntity, cfg.RateLimit.PerHour, cfg.RateLimit.PerMinute))
	return &d
}

func (g *Gate) checkCircuitBreaker(req Request, cfg *config.EngineConfig) *Decision {
	tripped, reason := g.breaker.Tripped()
	if !tripped {
		return nil
	}
	d := Escalate(CheckCircuitBreaker, fmt.Sprintf("circuit breaker tripped: %s", reason))
	return &d
}
