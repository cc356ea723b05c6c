package recovery

import (
	"fmt"
	"strings"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/log"
	"github.com/cdw/institute/pkg/metrics"
	"github.com/cdw/institute/pkg/state"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

// Gate owns the lockdown boundary: triggering LOCKDOWN on the
// director's order and verifying the conditions for leaving it. The
// verify step is deliberately strict — recovery is the one transition
// that must not be possible while anything is still wrong.
type Gate struct {
	stores  *storage.Stores
	clock   types.Clock
	state   *state.Manager
	auditor *audit.Logger
}

// NewGate builds a Gate over the opened stores.
func NewGate(stores *storage.Stores, clock types.Clock) *Gate {
	return &Gate{
		stores:  stores,
		clock:   clock,
		state:   state.New(stores.System, clock),
		auditor: audit.New(stores.Audit, clock),
	}
}

// TriggerLockdown puts the system into LOCKDOWN on the director's
// order. Refuses when already locked down.
func (g *Gate) TriggerLockdown(reason string) error {
	locked, err := g.state.IsLockdown()
	if err != nil {
		return err
	}
	if locked {
		return &types.InvariantError{Msg: "System is already in LOCKDOWN mode"}
	}

	if err := g.state.SetMode(types.ModeLockdown, reason); err != nil {
		return err
	}

	metrics.LockdownsTriggered.WithLabelValues("manual").Inc()
	log.Logger.Error().Str("reason", reason).Msg("Lockdown triggered by director")
	return g.auditor.Log(types.RoleDirector, audit.ActionLockdownTriggered, "", reason)
}

// VerifyRecoveryConditions checks everything that must hold before the
// system may leave LOCKDOWN and returns the issues in a fixed order:
// mode, unhandled escalations, per-store integrity, audit trail
// integrity. An empty slice means recovery may proceed. The error
// covers infrastructure failures only.
func (g *Gate) VerifyRecoveryConditions() ([]string, error) {
	var issues []string

	rec, err := g.state.Current()
	if err != nil {
		return nil, err
	}
	if rec.Mode != types.ModeLockdown {
		issues = append(issues, fmt.Sprintf("System is not in LOCKDOWN mode (current: %s)", rec.Mode))
	}

	var unacked int
	err = g.stores.Management.Get(&unacked,
		`SELECT COUNT(*) FROM escalations WHERE state NOT IN ('ACKNOWLEDGED', 'RESOLVED', 'EXPIRED')`)
	if err != nil {
		return nil, &types.StorageError{Op: "count unhandled escalations", Err: err}
	}
	if unacked > 0 {
		issues = append(issues, fmt.Sprintf("%d escalation(s) not acknowledged", unacked))
	}

	for _, res := range g.stores.IntegrityCheckAll() {
		if !res.OK {
			issues = append(issues, fmt.Sprintf("Database integrity check failed: %s.db", res.Name))
		}
	}

	ok, err := g.auditor.VerifyIntegrity()
	if err != nil {
		return nil, err
	}
	if !ok {
		issues = append(issues, "Audit log integrity check failed")
	}

	return issues, nil
}

// ConfirmRecovery re-verifies the conditions and, when clean, walks
// LOCKDOWN → RECOVERY → NORMAL. The double transition leaves an
// explicit RECOVERY row in the mode history between the lockdown and
// the return to normal operation.
func (g *Gate) ConfirmRecovery() error {
	issues, err := g.VerifyRecoveryConditions()
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		return &types.InvariantError{Msg: "Cannot recover: " + strings.Join(issues, ", ")}
	}

	if err := g.state.SetMode(types.ModeRecovery, "Director confirmed recovery"); err != nil {
		return err
	}
	if err := g.auditor.Log(types.RoleDirector, audit.ActionRecoveryInitiated, "", ""); err != nil {
		return err
	}

	if err := g.state.SetMode(types.ModeNormal, "Recovery completed"); err != nil {
		return err
	}

	log.Logger.Info().Msg("Recovery completed, system back to NORMAL")
	return g.auditor.Log(types.RoleDirector, audit.ActionRecoveryCompleted, "", "")
}

// Status bundles what the director's status command shows: current
// mode, whether recovery could proceed, and escalation counts.
type Status struct {
	Mode        types.ModeRecord
	CanRecover  bool
	Issues      []string
	Escalations map[types.EscalationState]int
}

// Status collects the system status snapshot.
func (g *Gate) Status() (Status, error) {
	rec, err := g.state.Current()
	if err != nil {
		return Status{}, err
	}

	issues, err := g.VerifyRecoveryConditions()
	if err != nil {
		return Status{}, err
	}

	rows := []struct {
		State string `db:"state"`
		Count int    `db:"count"`
	}{}
	err = g.stores.Management.Select(&rows,
		`SELECT state, COUNT(*) AS count FROM escalations GROUP BY state ORDER BY state`)
	if err != nil {
		return Status{}, &types.StorageError{Op: "count escalations", Err: err}
	}

	counts := make(map[types.EscalationState]int, len(rows))
	for _, r := range rows {
		counts[types.EscalationState(r.State)] = r.Count
	}

	return Status{
		Mode:        rec,
		CanRecover:  len(issues) == 0,
		Issues:      issues,
		Escalations: counts,
	}, nil
}
