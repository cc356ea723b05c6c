package processor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/queue"
	"github.com/cdw/institute/pkg/state"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

func newTestProcessor(t *testing.T) (*Processor, *storage.Stores, config.Paths, *types.FixedClock) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	clock := &types.FixedClock{Instant: time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)}
	require.NoError(t, storage.Bootstrap(paths, clock))

	stores, err := storage.Open(paths)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	return New(stores, clock), stores, paths, clock
}

func auditActions(t *testing.T, stores *storage.Stores) []string {
	t.Helper()
	var actions []string
	require.NoError(t, stores.Audit.Select(&actions, `SELECT action FROM log ORDER BY id`))
	return actions
}

func TestProcessPendingCompletesTasks(t *testing.T) {
	p, stores, paths, clock := newTestProcessor(t)
	q := queue.New(stores.Research, paths, clock)

	first, err := q.CreateTask("ingest batch 7", "nightly data pull")
	require.NoError(t, err)
	second, err := q.CreateTask("rebuild index", "")
	require.NoError(t, err)

	n, err := p.ProcessPending()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []int64{first, second} {
		task, err := q.Task(id)
		require.NoError(t, err)
		assert.Equal(t, types.TaskCompleted, task.Status)
		assert.Equal(t, "2026-03-14T09:26:53", types.StrVal(task.CompletedAt))

		status, ok := q.QueueFileStatus(id)
		require.True(t, ok)
		assert.Equal(t, types.TaskCompleted, status)
	}

	actions := auditActions(t, stores)
	assert.Equal(t, []string{
		audit.ActionTaskStarted, audit.ActionTaskCompleted,
		audit.ActionTaskStarted, audit.ActionTaskCompleted,
	}, actions)

	// Lock is released once the pass ends.
	_, err = os.Stat(paths.TaskProcessorLock)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessPendingRecordsFailure(t *testing.T) {
	p, stores, paths, clock := newTestProcessor(t)
	q := queue.New(stores.Research, paths, clock)

	id, err := q.CreateTask("flaky analysis", "")
	require.NoError(t, err)

	p.Runner = RunnerFunc(func(types.TaskFile) error {
		return errors.New("analysis script exited 2")
	})

	n, err := p.ProcessPending()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	task, err := q.Task(id)
	require.NoError(t, err)
	assert.Equal(t, types.TaskFailed, task.Status)
	assert.Equal(t, "Task execution failed", types.StrVal(task.ErrorMessage))

	status, ok := q.QueueFileStatus(id)
	require.True(t, ok)
	assert.Equal(t, types.TaskFailed, status)

	assert.Contains(t, auditActions(t, stores), audit.ActionTaskFailed)
}

func TestProcessPendingBlockedModes(t *testing.T) {
	for _, mode := range []types.Mode{types.ModeLockdown, types.ModePreLockdown} {
		t.Run(string(mode), func(t *testing.T) {
			p, stores, paths, clock := newTestProcessor(t)
			q := queue.New(stores.Research, paths, clock)

			_, err := q.CreateTask("waiting", "")
			require.NoError(t, err)
			require.NoError(t, state.New(stores.System, clock).SetMode(mode, "drill"))

			n, err := p.ProcessPending()
			require.NoError(t, err)
			assert.Zero(t, n)

			var details string
			require.NoError(t, stores.Audit.Get(&details,
				`SELECT details FROM log WHERE action = ?`, audit.ActionTaskProcessingBlocked))
			assert.Equal(t, "Mode: "+string(mode)+", Reason: drill", details)

			// A blocked pass leaves no heartbeat, so the watchdog
			// eventually notices the stall.
			_, err = os.Stat(paths.HeartbeatFile(component))
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestProcessPendingLockHeld(t *testing.T) {
	p, stores, paths, clock := newTestProcessor(t)
	q := queue.New(stores.Research, paths, clock)

	id, err := q.CreateTask("contended", "")
	require.NoError(t, err)

	holder := queue.NewLock(paths.TaskProcessorLock)
	require.True(t, holder.Acquire())
	defer holder.Release()

	n, err := p.ProcessPending()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, auditActions(t, stores), audit.ActionTaskProcessorLockFailed)

	task, err := q.Task(id)
	require.NoError(t, err)
	assert.Equal(t, types.TaskPending, task.Status)
}

func TestProcessPendingSkipsMalformedFile(t *testing.T) {
	p, stores, paths, clock := newTestProcessor(t)
	q := queue.New(stores.Research, paths, clock)

	id, err := q.CreateTask("good", "")
	require.NoError(t, err)
	bad := filepath.Join(paths.QueuePendingDir, "0.json")
	require.NoError(t, os.WriteFile(bad, []byte("{truncated"), 0o644))

	n, err := p.ProcessPending()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	task, err := q.Task(id)
	require.NoError(t, err)
	assert.Equal(t, types.TaskCompleted, task.Status)

	var target string
	require.NoError(t, stores.Audit.Get(&target,
		`SELECT target FROM log WHERE action = ?`, audit.ActionTaskProcessingError))
	assert.Equal(t, bad, target)

	// The unreadable file stays where it is for an operator to inspect.
	_, err = os.Stat(bad)
	assert.NoError(t, err)
}

func TestProcessPendingRequeuesInterruptedTask(t *testing.T) {
	p, stores, paths, clock := newTestProcessor(t)
	q := queue.New(stores.Research, paths, clock)

	id, err := q.CreateTask("interrupted", "")
	require.NoError(t, err)

	// Simulate a pass that died mid-task: file and row both at
	// processing, nobody holding the lock.
	require.NoError(t, q.MoveTask(id, types.TaskPending, types.TaskProcessing))
	require.NoError(t, q.UpdateTaskStatus(id, types.TaskProcessing, ""))

	n, err := p.ProcessPending()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	task, err := q.Task(id)
	require.NoError(t, err)
	assert.Equal(t, types.TaskCompleted, task.Status)
}

func TestProcessPendingWritesHeartbeat(t *testing.T) {
	p, _, paths, clock := newTestProcessor(t)

	n, err := p.ProcessPending()
	require.NoError(t, err)
	assert.Zero(t, n)

	data, err := os.ReadFile(paths.HeartbeatFile(component))
	require.NoError(t, err)
	assert.Equal(t, types.FormatTime(clock.Now()), string(data))
}

func TestRunnerReceivesTaskFile(t *testing.T) {
	p, stores, paths, clock := newTestProcessor(t)
	q := queue.New(stores.Research, paths, clock)

	id, err := q.CreateTask("observe me", "with description")
	require.NoError(t, err)

	var got types.TaskFile
	p.Runner = RunnerFunc(func(task types.TaskFile) error {
		got = task
		return nil
	})

	_, err = p.ProcessPending()
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "observe me", got.Name)
	assert.Equal(t, "with description", types.StrVal(got.Description))
}
