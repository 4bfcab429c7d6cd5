package action

import "time"

// Action is a corrective measure proposed for an alert. Status moves
// through a one-directional state machine; the only exit from executed is
// rolled_back or expired.
type Action struct {
	ID           string    `json:"id"`
	AlertID      string    `json:"alert_id"`
	Kind         string    `json:"kind"`
	TargetEntity string    `json:"target_entity"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	ProposedAt   time.Time `json:"proposed_at"`
	ExecutedAt   time.Time `json:"executed_at,omitempty"`
	ResolvedAt   time.Time `json:"resolved_at,omitempty"`
}

// Action kinds, ordered roughly by severity
const (
	KindLogOnly               = "log_only"
	KindRateLimit             = "rate_limit"
	KindRequireMFA            = "require_mfa"
	KindRevokeSession         = "revoke_session"
	KindBlockIP               = "block_ip"
	KindLockAccount           = "lock_account"
	KindRevokeAPIKey          = "revoke_api_key"
	KindDisableServiceAccount = "disable_service_account"
)

// Action statuses
const (
	StatusProposed   = "proposed"
	StatusExecuted   = "executed"
	StatusEscalated  = "escalated"
	StatusLogOnly    = "log_only"
	StatusRolledBack = "rolled_back"
	StatusExpired    = "expired"
	StatusRejected   = "rejected"
)

// validTransitions encodes the status state machine. No transition skips
// proposed; escalated actions re-enter execution only through analyst
// approval.
var validTransitions = map[string]map[string]bool{
	StatusProposed: {
		StatusExecuted:  true,
		StatusEscalated: true,
		StatusLogOnly:   true,
	},
	StatusExecuted: {
		StatusRolledBack: true,
		StatusExpired:    true,
	},
	StatusEscalated: {
		StatusExecuted: true,
		StatusRejected: true,
	},
}

// CanTransition reports whether moving from one status to another is legal
func CanTransition(from, to string) bool {
	return validTransitions[from][to]
}

// IsTerminal reports whether no further transitions are possible
func IsTerminal(status string) bool {
	return len(validTransitions[status]) == 0
}

// Reversible reports whether an executed action of this kind has a defined
// reversal
func Reversible(kind string) bool {
	switch kind {
	case KindBlockIP, KindLockAccount, KindRevokeSession,
		KindRevokeAPIKey, KindDisableServiceAccount, KindRateLimit, KindRequireMFA:
		return true
	}
	return false
}

// AutoExpires reports whether an executed action of this kind reverses
// itself after a retention window. Account locks require explicit analyst
// reversal.
func AutoExpires(kind string) bool {
	return kind == KindBlockIP
}

// RetainsCredential reports whether reversal material for this kind is
// kept in the restore store for the 7-day restore window
func RetainsCredential(kind string) bool {
	return kind == KindRevokeSession || kind == KindRevokeAPIKey
}

// ValidKind reports whether the kind is known
func ValidKind(kind string) bool {
	switch kind {
	case KindLogOnly, KindRateLimit, KindRequireMFA, KindRevokeSession,
		KindBlockIP, KindLockAccount, KindRevokeAPIKey, KindDisableServiceAccount:
		return true
	}
	return false
}

// Filter contains action listing options
type Filter struct {
	AlertID      string
	Kind         string
	Status       string
	TargetEntity string
}
