package event

import "time"

// Kind classifies the entity an event refers to
type Kind string

const (
	KindUser    Kind = "user"
	KindIP      Kind = "ip"
	KindService Kind = "service"
)

// Event is an immutable, normalized security event produced by an external
// ingestion source. Events are never mutated after creation.
type Event struct {
	EntityID   string                 `json:"entity_id"`
	EntityKind Kind                   `json:"entity_kind"`
	Type       string                 `json:"type"`
	Timestamp  time.Time              `json:"timestamp"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Event types emitted by ingestion sources
const (
	TypeLoginSuccess       = "login_success"
	TypeLoginFailed        = "login_failed"
	TypeAPIRequest         = "api_request"
	TypeRoleChange         = "role_change"
	TypePermissionChange   = "permission_change"
	TypeServiceAccountAuth = "service_account_auth"
	TypeAdminCommand       = "admin_command"
)

// StringAttr returns a string attribute, or "" if absent or mistyped
func (e Event) StringAttr(key string) string {
	if v, ok := e.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// FloatAttr returns a numeric attribute, or 0 if absent or mistyped.
// JSON decoding yields float64 for all numbers; ints are accepted too.
func (e Event) FloatAttr(key string) float64 {
	switch v := e.Attributes[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// BoolAttr returns a boolean attribute, or false if absent or mistyped
func (e Event) BoolAttr(key string) bool {
	if v, ok := e.Attributes[key].(bool); ok {
		return v
	}
	return false
}
