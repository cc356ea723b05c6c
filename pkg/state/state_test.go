package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

func newTestManager(t *testing.T) (*Manager, *types.FixedClock) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	clock := &types.FixedClock{Instant: time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)}
	require.NoError(t, storage.Bootstrap(paths, clock))

	stores, err := storage.Open(paths)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	return New(stores.System, clock), clock
}

func TestCurrentAfterBootstrap(t *testing.T) {
	mgr, _ := newTestManager(t)

	rec, err := mgr.Current()
	require.NoError(t, err)
	assert.Equal(t, types.ModeNormal, rec.Mode)
	assert.Equal(t, "System initialized", rec.Reason)
}

func TestSetModeAppendsHistory(t *testing.T) {
	mgr, clock := newTestManager(t)

	clock.Advance(time.Minute)
	require.NoError(t, mgr.SetMode(types.ModeAlert, "Disk usage climbing"))
	clock.Advance(time.Minute)
	require.NoError(t, mgr.SetMode(types.ModeLockdown, "Automatic lockdown triggered by L4 escalation: DISK_CRITICAL"))

	rec, err := mgr.Current()
	require.NoError(t, err)
	assert.Equal(t, types.ModeLockdown, rec.Mode)
	assert.Equal(t, "2026-03-14T09:28:53", rec.UpdatedAt)

	history, err := mgr.History(10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, types.ModeLockdown, history[0].Mode)
	assert.Equal(t, types.ModeAlert, history[1].Mode)
	assert.Equal(t, types.ModeNormal, history[2].Mode)
}

func TestSetModeRejectsInvalid(t *testing.T) {
	mgr, _ := newTestManager(t)

	err := mgr.SetMode(types.Mode("PANIC"), "nope")
	require.Error(t, err)

	var inv *types.InvariantError
	assert.ErrorAs(t, err, &inv)

	rec, err := mgr.Current()
	require.NoError(t, err)
	assert.Equal(t, types.ModeNormal, rec.Mode, "rejected transition must not touch the history")
}

func TestModeGates(t *testing.T) {
	tests := []struct {
		mode        types.Mode
		canProcess  bool
		canResearch bool
	}{
		{types.ModeNormal, true, true},
		{types.ModeAlert, true, true},
		{types.ModePreLockdown, false, true},
		{types.ModeLockdown, false, false},
		{types.ModeRecovery, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			mgr, _ := newTestManager(t)
			require.NoError(t, mgr.SetMode(tt.mode, "test transition"))

			canProcess, err := mgr.CanProcessTasks()
			require.NoError(t, err)
			assert.Equal(t, tt.canProcess, canProcess)

			canResearch, err := mgr.CanResearcherAccess()
			require.NoError(t, err)
			assert.Equal(t, tt.canResearch, canResearch)
		})
	}
}

func TestCurrentEmptyHistoryReadsNormal(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, err := mgr.db.Exec(`DELETE FROM system_mode`)
	require.NoError(t, err)

	rec, err := mgr.Current()
	require.NoError(t, err)
	assert.Equal(t, types.ModeNormal, rec.Mode)
	assert.Equal(t, "Default", rec.Reason)
	assert.Equal(t, "2026-03-14T09:26:53", rec.UpdatedAt)
}
