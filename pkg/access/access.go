package access

import (
	"fmt"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/state"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

// Guard enforces the two access rules every command passes through:
// the command's role requirement, and the researcher lockdown gate.
// Every denial is written to the audit trail before it is returned.
type Guard struct {
	state   *state.Manager
	auditor *audit.Logger
}

// NewGuard builds a Guard over the opened stores.
func NewGuard(stores *storage.Stores, clock types.Clock) *Guard {
	return &Guard{
		state:   state.New(stores.System, clock),
		auditor: audit.New(stores.Audit, clock),
	}
}

// RequireRole rejects a caller whose role does not match the command's
// requirement. The denial is audited under the caller's actual role
// with the required role as target.
func (g *Guard) RequireRole(actual, required types.Role) error {
	if actual == required {
		return nil
	}

	g.auditor.Log(actual, audit.ActionRoleViolation, string(required),
		fmt.Sprintf("Attempted to execute %s command", required))
	return &types.PolicyError{Msg: fmt.Sprintf(
		"Permission denied: This command requires '%s' role. You are logged in as '%s'.",
		required, actual)}
}

// CheckResearcherAccess blocks researchers while the system is in
// LOCKDOWN. Directors and the system role pass unconditionally; they
// are the ones who unwind a lockdown.
func (g *Guard) CheckResearcherAccess(role types.Role) error {
	if role != types.RoleResearcher {
		return nil
	}

	ok, err := g.state.CanResearcherAccess()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	rec, err := g.state.Current()
	if err != nil {
		return err
	}

	g.auditor.Log(role, audit.ActionLockdownAccessDenied, "",
		fmt.Sprintf("Mode: %s, Reason: %s", rec.Mode, rec.Reason))
	return &types.PolicyError{Msg: fmt.Sprintf(
		"System is in %s mode. Researcher access is blocked.\nReason: %s\nContact the Director for recovery.",
		rec.Mode, rec.Reason)}
}
