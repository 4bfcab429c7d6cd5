package client

import "time"

// ListOptions contains common pagination options
type ListOptions struct {
	Page     int
	PageSize int
}

// Paginated wraps a page of results
type Paginated[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Signal is one contributing detection signal on an alert
type Signal struct {
	Name     string                 `json:"name"`
	Weight   float64                `json:"weight"`
	Evidence map[string]interface{} `json:"evidence,omitempty"`
}

// Alert is a raised security alert
type Alert struct {
	ID          string    `json:"id"`
	ThreatType  string    `json:"threat_type"`
	EntityID    string    `json:"entity_id"`
	EntityKind  string    `json:"entity_kind"`
	Confidence  float64   `json:"confidence"`
	BlastRadius string    `json:"blast_radius"`
	Signals     []Signal  `json:"signals"`
	Outcome     string    `json:"outcome"`
	CreatedAt   time.Time `json:"created_at"`
}

// Action is a proposed or executed corrective measure
type Action struct {
	ID           string     `json:"id"`
	AlertID      string     `json:"alert_id"`
	Kind         string     `json:"kind"`
	TargetEntity string     `json:"target_entity"`
	Status       string     `json:"status"`
	Reason       string     `json:"reason,omitempty"`
	Actor        string     `json:"actor,omitempty"`
	ProposedAt   time.Time  `json:"proposed_at"`
	ExecutedAt   *time.Time `json:"executed_at,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// Event is one security event for evaluation
type Event struct {
	EntityID   string                 `json:"entity_id"`
	EntityKind string                 `json:"entity_kind"`
	Type       string                 `json:"type"`
	Timestamp  time.Time              `json:"timestamp"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// BreakerState is the circuit breaker snapshot
type BreakerState struct {
	Tripped            bool      `json:"tripped"`
	Reason             string    `json:"reason,omitempty"`
	Actor              string    `json:"actor,omitempty"`
	TrippedAt          time.Time `json:"tripped_at,omitempty"`
	FalsePositiveRatio float64   `json:"false_positive_ratio"`
	ErrorRatio         float64   `json:"error_ratio"`
	ResolvedCount      int       `json:"resolved_count"`
	AttemptCount       int       `json:"attempt_count"`
}

// AuditRecord is one append-only decision trail entry
type AuditRecord struct {
	ID        string    `json:"id"`
	ActionID  string    `json:"action_id"`
	Decision  string    `json:"decision"`
	Rationale string    `json:"rationale"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// Analyst is an operator account
type Analyst struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
