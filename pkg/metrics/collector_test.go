package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

func TestCollectorReflectsStoreState(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	clock := &types.FixedClock{Instant: time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)}
	require.NoError(t, storage.Bootstrap(paths, clock))

	stores, err := storage.Open(paths)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	now := types.FormatTime(clock.Now())
	_, err = stores.Research.Exec(
		`INSERT INTO tasks (name, status, created_at, updated_at) VALUES ('a', 'pending', ?, ?), ('b', 'completed', ?, ?)`,
		now, now, now, now)
	require.NoError(t, err)
	_, err = stores.Management.Exec(
		`INSERT INTO escalations (code, level, state, message, created_at) VALUES ('DISK_WARNING', 'L2', 'NOTIFIED', 'disk', ?)`,
		now)
	require.NoError(t, err)

	c := NewCollector(stores, time.Minute)
	c.collect()

	require.Equal(t, 1.0, testutil.ToFloat64(ModeInfo.WithLabelValues("NORMAL")))
	require.Equal(t, 0.0, testutil.ToFloat64(ModeInfo.WithLabelValues("LOCKDOWN")))
	require.Equal(t, 1.0, testutil.ToFloat64(TasksTotal.WithLabelValues("pending")))
	require.Equal(t, 1.0, testutil.ToFloat64(TasksTotal.WithLabelValues("completed")))
	require.Equal(t, 0.0, testutil.ToFloat64(TasksTotal.WithLabelValues("failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(EscalationsByState.WithLabelValues("NOTIFIED")))
	require.Equal(t, 1.0, testutil.ToFloat64(ActiveEscalationsByLevel.WithLabelValues("L2")))
	require.Equal(t, 0.0, testutil.ToFloat64(ActiveEscalationsByLevel.WithLabelValues("L4")))
}
