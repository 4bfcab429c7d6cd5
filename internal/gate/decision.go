package gate

// Verdict is the tagged outcome of a safety gate evaluation
type Verdict int

const (
	// VerdictExecute allows automatic execution
	VerdictExecute Verdict = iota
	// VerdictEscalate routes the action to an analyst
	VerdictEscalate
	// VerdictLogOnly records the action without executing it
	VerdictLogOnly
)

// String returns the wire representation of the verdict
func (v Verdict) String() string {
	switch v {
	case VerdictExecute:
		return "execute"
	case VerdictEscalate:
		return "escalate"
	case VerdictLogOnly:
		return "log_only"
	default:
		return "unknown"
	}
}

// Decision is the safety gate's output for one alert and proposed action.
// Escalate and LogOnly always carry the failing check's name and its
// specific reason; analysts never see a generic failure.
type Decision struct {
	Verdict Verdict `json:"verdict"`
	Check   string  `json:"check,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

// Execute returns a passing decision
func Execute() Decision {
	return Decision{Verdict: VerdictExecute}
}

// Escalate returns an escalation attributed to a check
func Escalate(check, reason string) Decision {
	return Decision{Verdict: VerdictEscalate, Check: check, Reason: reason}
}

// LogOnly returns a log-only decision attributed to a check
func LogOnly(check, reason string) Decision {
	return Decision{Verdict: VerdictLogOnly, Check: check, Reason: reason}
}
