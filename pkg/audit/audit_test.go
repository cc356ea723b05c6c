package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

func newTestLogger(t *testing.T) (*Logger, *types.FixedClock, *storage.Stores) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	clock := &types.FixedClock{Instant: time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)}
	require.NoError(t, storage.Bootstrap(paths, clock))

	stores, err := storage.Open(paths)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	return New(stores.Audit, clock), clock, stores
}

func TestLogWritesChecksummedEntry(t *testing.T) {
	logger, _, _ := newTestLogger(t)

	require.NoError(t, logger.Log(types.RoleSystem, ActionTaskStarted, "task_42", "Processing started"))

	entries, err := logger.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "2026-03-14T09:26:53", e.Timestamp)
	assert.Equal(t, types.RoleSystem, e.Role)
	assert.Equal(t, ActionTaskStarted, e.Action)
	assert.Equal(t, "task_42", types.StrVal(e.Target))
	assert.Equal(t, "Processing started", types.StrVal(e.Details))
	assert.Equal(t, checksum(e.Timestamp, "system", ActionTaskStarted, "task_42", "Processing started"), e.Checksum)
}

func TestLogStoresEmptyFieldsAsNull(t *testing.T) {
	logger, _, _ := newTestLogger(t)

	require.NoError(t, logger.Log(types.RoleSystem, ActionWatchdogStarted, "", ""))

	entries, err := logger.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Target)
	assert.Nil(t, entries[0].Details)

	ok, err := logger.VerifyIntegrity()
	require.NoError(t, err)
	assert.True(t, ok, "NULL fields must hash the same as empty strings")
}

func TestRecentNewestFirst(t *testing.T) {
	logger, clock, _ := newTestLogger(t)

	require.NoError(t, logger.Log(types.RoleResearcher, ActionTaskCreated, "task_1", "first"))
	clock.Advance(time.Minute)
	require.NoError(t, logger.Log(types.RoleResearcher, ActionTaskCreated, "task_2", "second"))
	clock.Advance(time.Minute)
	require.NoError(t, logger.Log(types.RoleDirector, ActionEscalationAcknowledged, "3", "third"))

	entries, err := logger.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionEscalationAcknowledged, entries[0].Action)
	assert.Equal(t, "task_2", types.StrVal(entries[1].Target))
}

func TestLogf(t *testing.T) {
	logger, _, _ := newTestLogger(t)

	require.NoError(t, logger.Logf(types.RoleSystem, ActionTaskProcessingBlocked, "",
		"Mode: %s, Reason: %s", "LOCKDOWN", "Automatic lockdown"))

	entries, err := logger.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Mode: LOCKDOWN, Reason: Automatic lockdown", types.StrVal(entries[0].Details))
}

func TestVerifyIntegrityDetectsTampering(t *testing.T) {
	logger, clock, stores := newTestLogger(t)

	require.NoError(t, logger.Log(types.RoleSystem, ActionAlertCreated, "DISK_WARNING", "Disk usage at 85.0%"))
	clock.Advance(time.Second)
	require.NoError(t, logger.Log(types.RoleDirector, ActionLockdownTriggered, "", "drill"))

	ok, err := logger.VerifyIntegrity()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = stores.Audit.Exec(`UPDATE log SET details = 'Disk usage at 10.0%' WHERE target = 'DISK_WARNING'`)
	require.NoError(t, err)

	ok, err = logger.VerifyIntegrity()
	require.NoError(t, err)
	assert.False(t, ok, "rewritten details must fail verification")
}

func TestVerifyIntegrityEmptyTrail(t *testing.T) {
	logger, _, _ := newTestLogger(t)

	ok, err := logger.VerifyIntegrity()
	require.NoError(t, err)
	assert.True(t, ok)
}
