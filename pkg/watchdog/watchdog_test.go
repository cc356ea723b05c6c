package watchdog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/metrics"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

func newTestWatchdog(t *testing.T) (*Watchdog, *storage.Stores, config.Paths, *types.FixedClock) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	clock := &types.FixedClock{Instant: time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)}
	require.NoError(t, storage.Bootstrap(paths, clock))

	stores, err := storage.Open(paths)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	w := New(stores, clock)
	w.diskUsage = func(string) float64 { return 42 }
	return w, stores, paths, clock
}

func touchHeartbeat(t *testing.T, paths config.Paths, mtime time.Time) {
	t.Helper()
	path := paths.HeartbeatFile(taskProcessorComponent)
	require.NoError(t, os.WriteFile(path, []byte(types.FormatTime(mtime)), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func alertFiles(t *testing.T, paths config.Paths) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(paths.SystemAlertsDir, "*.json"))
	require.NoError(t, err)
	return files
}

func TestCheckDiskThresholds(t *testing.T) {
	w, _, _, _ := newTestWatchdog(t)

	cases := []struct {
		name    string
		usage   float64
		code    string
		message string
	}{
		{"comfortable", 50, "", ""},
		{"at warning", 80, CodeDiskWarning, "Disk usage at 80.0% (warning threshold: 80.0%)"},
		{"between", 85.5, CodeDiskWarning, "Disk usage at 85.5% (warning threshold: 80.0%)"},
		{"at critical", 90, CodeDiskCritical, "Disk usage at 90.0% (critical threshold: 90.0%)"},
		{"above critical", 95.3, CodeDiskCritical, "Disk usage at 95.3% (critical threshold: 90.0%)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w.diskUsage = func(string) float64 { return tc.usage }
			alerts := w.CheckDisk()

			if tc.code == "" {
				assert.Empty(t, alerts)
				return
			}
			require.Len(t, alerts, 1)
			assert.Equal(t, tc.code, alerts[0].Code)
			assert.Equal(t, tc.message, alerts[0].Message)
		})
	}
}

func TestCheckDiskSetsGauge(t *testing.T) {
	w, _, _, _ := newTestWatchdog(t)

	w.diskUsage = func(string) float64 { return 61.5 }
	w.CheckDisk()
	assert.Equal(t, 61.5, testutil.ToFloat64(metrics.DiskUsagePercent))
}

func TestCheckDiskHonorsConfiguredThresholds(t *testing.T) {
	w, stores, _, clock := newTestWatchdog(t)

	now := types.FormatTime(clock.Now())
	require.NoError(t, stores.SetConfigValue(config.KeyDiskWarningThreshold, "70", now))

	w.diskUsage = func(string) float64 { return 75 }
	alerts := w.CheckDisk()
	require.Len(t, alerts, 1)
	assert.Equal(t, "Disk usage at 75.0% (warning threshold: 70.0%)", alerts[0].Message)
}

func TestCheckDiskBadConfigFallsBack(t *testing.T) {
	w, stores, _, clock := newTestWatchdog(t)

	now := types.FormatTime(clock.Now())
	require.NoError(t, stores.SetConfigValue(config.KeyDiskWarningThreshold, "lots", now))

	w.diskUsage = func(string) float64 { return 85 }
	alerts := w.CheckDisk()
	require.Len(t, alerts, 1)
	assert.Equal(t, CodeDiskWarning, alerts[0].Code)
	assert.Contains(t, alerts[0].Message, "warning threshold: 80.0%")
}

func TestCheckHeartbeatsMissingFileIsSilent(t *testing.T) {
	w, _, _, _ := newTestWatchdog(t)
	assert.Empty(t, w.CheckHeartbeats())
}

func TestCheckHeartbeatsAges(t *testing.T) {
	w, _, paths, clock := newTestWatchdog(t)

	t.Run("fresh", func(t *testing.T) {
		touchHeartbeat(t, paths, clock.Now().Add(-10*time.Minute))
		assert.Empty(t, w.CheckHeartbeats())
	})

	t.Run("at threshold", func(t *testing.T) {
		touchHeartbeat(t, paths, clock.Now().Add(-30*time.Minute))
		assert.Empty(t, w.CheckHeartbeats())
	})

	t.Run("stale", func(t *testing.T) {
		touchHeartbeat(t, paths, clock.Now().Add(-45*time.Minute))
		alerts := w.CheckHeartbeats()
		require.Len(t, alerts, 1)
		assert.Equal(t, CodeHeartbeatStaleTaskProcessor, alerts[0].Code)
		assert.Equal(t, types.SeverityWarning, alerts[0].Level)
		assert.Equal(t, "Task processor heartbeat is 45.0 minutes old", alerts[0].Message)
	})
}

func TestCheckDatabasesHealthy(t *testing.T) {
	w, _, _, _ := newTestWatchdog(t)
	assert.Empty(t, w.CheckDatabases())
}

func TestCheckDatabasesFlagsCorruption(t *testing.T) {
	w, _, paths, _ := newTestWatchdog(t)

	require.NoError(t, os.WriteFile(paths.SharedDB, []byte("scribbled over"), 0o644))

	alerts := w.CheckDatabases()
	require.Len(t, alerts, 1)
	assert.Equal(t, "DB_INTEGRITY_SHARED", alerts[0].Code)
	assert.Equal(t, types.SeverityCritical, alerts[0].Level)
	assert.Equal(t, "Database integrity check failed: shared.db", alerts[0].Message)
}

func TestCheckAllWritesAlertFile(t *testing.T) {
	w, stores, paths, _ := newTestWatchdog(t)

	w.diskUsage = func(string) float64 { return 97 }
	require.NoError(t, w.CheckAll())

	files := alertFiles(t, paths)
	require.Len(t, files, 1)
	assert.Equal(t, "DISK_CRITICAL_20260314_092653.json", filepath.Base(files[0]))

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var alert types.Alert
	require.NoError(t, json.Unmarshal(data, &alert))
	assert.Equal(t, types.SeverityCritical, alert.Level)
	assert.Equal(t, CodeDiskCritical, alert.Code)
	assert.Equal(t, "Disk usage at 97.0% (critical threshold: 90.0%)", alert.Message)
	assert.Equal(t, "2026-03-14T09:26:53", alert.CreatedAt)

	var details string
	require.NoError(t, stores.Audit.Get(&details,
		`SELECT details FROM log WHERE action = ? AND target = ?`, audit.ActionAlertCreated, CodeDiskCritical))
	assert.Equal(t, alert.Message, details)
}

func TestCheckAllRefreshesOwnHeartbeat(t *testing.T) {
	w, stores, paths, clock := newTestWatchdog(t)

	require.NoError(t, w.CheckAll())
	assert.Empty(t, alertFiles(t, paths))

	var beat types.Heartbeat
	require.NoError(t, stores.System.Get(&beat,
		`SELECT component, last_beat, status FROM heartbeats WHERE component = ?`, watchdogComponent))
	assert.Equal(t, "OK", beat.Status)
	assert.Equal(t, "2026-03-14T09:26:53", beat.LastBeat)

	// A later pass moves the beat forward.
	clock.Advance(1 * time.Minute)
	require.NoError(t, w.CheckAll())
	require.NoError(t, stores.System.Get(&beat,
		`SELECT component, last_beat, status FROM heartbeats WHERE component = ?`, watchdogComponent))
	assert.Equal(t, "2026-03-14T09:27:53", beat.LastBeat)
}

func TestCheckAllMultipleFindings(t *testing.T) {
	w, _, paths, clock := newTestWatchdog(t)

	w.diskUsage = func(string) float64 { return 83 }
	touchHeartbeat(t, paths, clock.Now().Add(-90*time.Minute))

	require.NoError(t, w.CheckAll())

	files := alertFiles(t, paths)
	require.Len(t, files, 2)
	assert.Equal(t, "DISK_WARNING_20260314_092653.json", filepath.Base(files[0]))
	assert.Equal(t, "HEARTBEAT_STALE_TASK_PROCESSOR_20260314_092653.json", filepath.Base(files[1]))
}
