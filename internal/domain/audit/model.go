package audit

import "time"

// Record is an append-only audit entry. Records are write-once and never
// edited; failures to append are reported but never block the decision
// pipeline.
type Record struct {
	ID        string    `json:"id"`
	ActionID  string    `json:"action_id"`
	Decision  string    `json:"decision"`
	Rationale string    `json:"rationale"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// ActorSystem is the actor recorded for decisions taken by the engine
// itself; analyst-driven records carry the analyst id instead.
const ActorSystem = "system"

// Filter contains audit listing options
type Filter struct {
	ActionID string
	Actor    string
	Decision string
}
