package action

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{StatusProposed, StatusExecuted, true},
		{StatusProposed, StatusEscalated, true},
		{StatusProposed, StatusLogOnly, true},
		{StatusProposed, StatusRolledBack, false},
		{StatusExecuted, StatusRolledBack, true},
		{StatusExecuted, StatusExpired, true},
		{StatusExecuted, StatusEscalated, false},
		{StatusEscalated, StatusExecuted, true},
		{StatusEscalated, StatusRejected, true},
		{StatusEscalated, StatusLogOnly, false},
		{StatusLogOnly, StatusExecuted, false},
		{StatusRolledBack, StatusExecuted, false},
		{StatusRejected, StatusExecuted, false},
		{StatusExpired, StatusExecuted, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{StatusLogOnly, StatusRolledBack, StatusExpired, StatusRejected} {
		if !IsTerminal(status) {
			t.Errorf("IsTerminal(%s) = false, want true", status)
		}
	}
	for _, status := range []string{StatusProposed, StatusExecuted, StatusEscalated} {
		if IsTerminal(status) {
			t.Errorf("IsTerminal(%s) = true, want false", status)
		}
	}
}

func TestKindProperties(t *testing.T) {
	if AutoExpires(KindLockAccount) {
		t.Error("account locks must never expire automatically")
	}
	if !AutoExpires(KindBlockIP) {
		t.Error("IP blocks auto-expire")
	}
	if !RetainsCredential(KindRevokeSession) || !RetainsCredential(KindRevokeAPIKey) {
		t.Error("revocations retain restore material")
	}
	if RetainsCredential(KindBlockIP) {
		t.Error("IP blocks have no credential material")
	}
	if Reversible(KindLogOnly) {
		t.Error("log_only has nothing to reverse")
	}
	if !ValidKind(KindDisableServiceAccount) || ValidKind("quarantine_host") {
		t.Error("ValidKind() misclassifies")
	}
}
