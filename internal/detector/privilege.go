package detector

import (
	"fmt"
	"strings"
	"time"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/domain/event"
)

// PrivilegeEvaluator inspects role, permission and service-account events
// for escalation: changes without approval records, direct permission
// edits, credentials used from unknown sources, privileged commands from
// non-privileged principals, and IAM grants that expand scope.
type PrivilegeEvaluator struct{}

func (e *PrivilegeEvaluator) Name() string { return "privilege" }

func (e *PrivilegeEvaluator) ThreatType() string { return alert.ThreatPrivilegeEscalation }

func (e *PrivilegeEvaluator) Evaluate(entityID string, events []event.Event, cfg *config.EngineConfig, now time.Time) ([]alert.Signal, error) {
	var signals []alert.Signal

	for _, ev := range events {
		switch ev.Type {
		case event.TypeRoleChange:
			if ev.Timestamp.IsZero() {
				return nil, fmt.Errorf("role_change for entity %s has no timestamp", entityID)
			}
			if !ev.BoolAttr("approved") {
				signals = append(signals, signal("unauthorized_role_change", cfg, map[string]interface{}{
					"old_role": ev.StringAttr("old_role"),
					"new_role": ev.StringAttr("new_role"),
				}))
			}

		case event.TypePermissionChange:
			if ev.BoolAttr("direct") {
				signals = append(signals, signal("direct_permission_modification", cfg, map[string]interface{}{
					"permission": ev.StringAttr("permission"),
					"changed_by": ev.StringAttr("changed_by"),
				}))
			}
			if expandsPrivileges(ev.StringAttr("new_permissions")) {
				signals = append(signals, signal("iam_privilege_expansion", cfg, map[string]interface{}{
					"new_permissions": ev.StringAttr("new_permissions"),
				}))
			}

		case event.TypeServiceAccountAuth:
			if !ev.BoolAttr("known_source") {
				signals = append(signals, signal("service_account_misuse", cfg, map[string]interface{}{
					"source_ip": ev.StringAttr("source_ip"),
				}))
			}

		case event.TypeAdminCommand:
			if !ev.BoolAttr("privileged_principal") {
				signals = append(signals, signal("unauthorized_admin_execution", cfg, map[string]interface{}{
					"command":   ev.StringAttr("command"),
					"principal": ev.StringAttr("principal"),
				}))
			}
		}
	}

	return signals, nil
}

// expandsPrivileges flags wildcard or administrative grants
func expandsPrivileges(newPermissions string) bool {
	if newPermissions == "" {
		return false
	}
	p := strings.ToLower(newPermissions)
	return strings.Contains(p, "*") ||
		strings.Contains(p, "admin") ||
		strings.Contains(p, "full")
}
