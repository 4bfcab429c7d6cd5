package alert

import "time"

// Signal is a single weighted piece of evidence produced by exactly one
// evaluator. Pure data, no behavior.
type Signal struct {
	Name     string                 `json:"name"`
	Weight   float64                `json:"weight"`
	Evidence map[string]interface{} `json:"evidence,omitempty"`
}

// Alert is the aggregator's output for one entity and one evaluation
// cycle. Confidence and blast radius are never recomputed after creation;
// re-scoring produces a new Alert. Only Outcome changes later, set by
// analyst review.
type Alert struct {
	ID          string    `json:"id"`
	ThreatType  string    `json:"threat_type"`
	EntityID    string    `json:"entity_id"`
	EntityKind  string    `json:"entity_kind"`
	Confidence  float64   `json:"confidence"`
	BlastRadius Radius    `json:"blast_radius"`
	Signals     []Signal  `json:"signals"`
	Outcome     string    `json:"outcome"`
	CreatedAt   time.Time `json:"created_at"`
}

// Threat types
const (
	ThreatAccountCompromise   = "account_compromise"
	ThreatAPIAbuse            = "api_abuse"
	ThreatPrivilegeEscalation = "privilege_escalation"
)

// Review outcomes
const (
	OutcomeUnknown       = "unknown"
	OutcomeTruePositive  = "true_positive"
	OutcomeFalsePositive = "false_positive"
)

// Radius is the ordinal blast radius estimate of a proposed action
type Radius string

const (
	RadiusSingleUser Radius = "single_user"
	RadiusTeam       Radius = "team"
	RadiusService    Radius = "service"
	RadiusGlobal     Radius = "global"
)

var radiusRank = map[Radius]int{
	RadiusSingleUser: 0,
	RadiusTeam:       1,
	RadiusService:    2,
	RadiusGlobal:     3,
}

// Valid reports whether r is a member of the ordinal set
func (r Radius) Valid() bool {
	_, ok := radiusRank[r]
	return ok
}

// Wider reports whether r is strictly wider than other
func (r Radius) Wider(other Radius) bool {
	return radiusRank[r] > radiusRank[other]
}

// Widest returns the wider of the two radii; ties keep r
func (r Radius) Widest(other Radius) Radius {
	if other.Wider(r) {
		return other
	}
	return r
}

// Filter contains alert listing options
type Filter struct {
	ThreatType    string
	EntityID      string
	Outcome       string
	MinConfidence float64
}
