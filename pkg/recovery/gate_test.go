package recovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/state"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

func newTestGate(t *testing.T) (*Gate, *storage.Stores, *types.FixedClock) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	clock := &types.FixedClock{Instant: time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)}
	require.NoError(t, storage.Bootstrap(paths, clock))

	stores, err := storage.Open(paths)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	return NewGate(stores, clock), stores, clock
}

func seedEscalation(t *testing.T, stores *storage.Stores, code string, st types.EscalationState) {
	t.Helper()
	_, err := stores.Management.Exec(
		`INSERT INTO escalations (code, level, state, message, created_at) VALUES (?, 'L1', ?, 'test', '2026-03-14T09:00:00')`,
		code, string(st))
	require.NoError(t, err)
}

func auditTrail(t *testing.T, stores *storage.Stores) []string {
	t.Helper()
	var actions []string
	require.NoError(t, stores.Audit.Select(&actions, `SELECT action FROM log ORDER BY id`))
	return actions
}

func TestTriggerLockdown(t *testing.T) {
	gate, stores, clock := newTestGate(t)

	require.NoError(t, gate.TriggerLockdown("Suspicious activity in queue"))

	mgr := state.New(stores.System, clock)
	rec, err := mgr.Current()
	require.NoError(t, err)
	assert.Equal(t, types.ModeLockdown, rec.Mode)
	assert.Equal(t, "Suspicious activity in queue", rec.Reason)

	var details string
	require.NoError(t, stores.Audit.Get(&details,
		`SELECT details FROM log WHERE action = ?`, audit.ActionLockdownTriggered))
	assert.Equal(t, "Suspicious activity in queue", details)
}

func TestTriggerLockdownRefusesWhenLocked(t *testing.T) {
	gate, _, _ := newTestGate(t)

	require.NoError(t, gate.TriggerLockdown("first"))

	err := gate.TriggerLockdown("second")
	require.Error(t, err)
	assert.EqualError(t, err, "System is already in LOCKDOWN mode")

	var invariant *types.InvariantError
	assert.ErrorAs(t, err, &invariant)
}

func TestVerifyReportsModeAndEscalations(t *testing.T) {
	gate, stores, _ := newTestGate(t)

	seedEscalation(t, stores, "DISK_WARNING", types.EscalationNotified)
	seedEscalation(t, stores, "DISK_CRITICAL", types.EscalationReminded)
	seedEscalation(t, stores, "DB_INTEGRITY_SHARED", types.EscalationResolved)

	issues, err := gate.VerifyRecoveryConditions()
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "System is not in LOCKDOWN mode (current: NORMAL)", issues[0])
	assert.Equal(t, "2 escalation(s) not acknowledged", issues[1])
}

func TestVerifyCleanInLockdown(t *testing.T) {
	gate, stores, _ := newTestGate(t)

	require.NoError(t, gate.TriggerLockdown("drill"))
	seedEscalation(t, stores, "DISK_WARNING", types.EscalationAcknowledged)
	seedEscalation(t, stores, "HEARTBEAT_STALE_TASK_PROCESSOR", types.EscalationExpired)

	issues, err := gate.VerifyRecoveryConditions()
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestVerifyDetectsTamperedAuditTrail(t *testing.T) {
	gate, stores, _ := newTestGate(t)

	require.NoError(t, gate.TriggerLockdown("drill"))
	_, err := stores.Audit.Exec(`UPDATE log SET details = 'rewritten' WHERE id = 1`)
	require.NoError(t, err)

	issues, err := gate.VerifyRecoveryConditions()
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Audit log integrity check failed", issues[0])
}

func TestConfirmRecoveryBlocked(t *testing.T) {
	gate, stores, _ := newTestGate(t)

	seedEscalation(t, stores, "DISK_WARNING", types.EscalationNotified)

	err := gate.ConfirmRecovery()
	require.Error(t, err)
	assert.EqualError(t, err,
		"Cannot recover: System is not in LOCKDOWN mode (current: NORMAL), 1 escalation(s) not acknowledged")

	// The refusal must not move the mode machine.
	mgr := state.New(stores.System, &types.FixedClock{})
	rec, err := mgr.Current()
	require.NoError(t, err)
	assert.Equal(t, types.ModeNormal, rec.Mode)
}

func TestConfirmRecoveryWalksExitPath(t *testing.T) {
	gate, stores, clock := newTestGate(t)

	require.NoError(t, gate.TriggerLockdown("L4 drill"))
	clock.Advance(2 * time.Hour)

	require.NoError(t, gate.ConfirmRecovery())

	mgr := state.New(stores.System, clock)
	history, err := mgr.History(3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, types.ModeNormal, history[0].Mode)
	assert.Equal(t, "Recovery completed", history[0].Reason)
	assert.Equal(t, types.ModeRecovery, history[1].Mode)
	assert.Equal(t, "Director confirmed recovery", history[1].Reason)
	assert.Equal(t, types.ModeLockdown, history[2].Mode)

	actions := auditTrail(t, stores)
	assert.Contains(t, actions, audit.ActionRecoveryInitiated)
	assert.Contains(t, actions, audit.ActionRecoveryCompleted)
}

func TestStatusSnapshot(t *testing.T) {
	gate, stores, _ := newTestGate(t)

	seedEscalation(t, stores, "DISK_WARNING", types.EscalationNotified)
	seedEscalation(t, stores, "DISK_CRITICAL", types.EscalationNotified)
	seedEscalation(t, stores, "DB_INTEGRITY_SHARED", types.EscalationResolved)

	status, err := gate.Status()
	require.NoError(t, err)
	assert.Equal(t, types.ModeNormal, status.Mode.Mode)
	assert.False(t, status.CanRecover)
	assert.NotEmpty(t, status.Issues)
	assert.Equal(t, 2, status.Escalations[types.EscalationNotified])
	assert.Equal(t, 1, status.Escalations[types.EscalationResolved])
}

func TestStatusCanRecoverInCleanLockdown(t *testing.T) {
	gate, _, _ := newTestGate(t)

	require.NoError(t, gate.TriggerLockdown("drill"))

	status, err := gate.Status()
	require.NoError(t, err)
	assert.True(t, status.CanRecover)
	assert.Empty(t, status.Issues)
}
