package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/queue"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

func newTestGenerator(t *testing.T) (*Generator, *storage.Stores, config.Paths, *types.FixedClock) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	clock := &types.FixedClock{Instant: time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)}
	require.NoError(t, storage.Bootstrap(paths, clock))

	stores, err := storage.Open(paths)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	return NewGenerator(stores, clock), stores, paths, clock
}

func TestGenerateDaily(t *testing.T) {
	gen, stores, paths, clock := newTestGenerator(t)
	q := queue.New(stores.Research, paths, clock)

	first, err := q.CreateTask("catalog samples", "")
	require.NoError(t, err)
	_, err = q.CreateTask("transcribe notes", "")
	require.NoError(t, err)
	require.NoError(t, q.UpdateTaskStatus(first, types.TaskCompleted, ""))

	_, err = stores.Management.Exec(
		`INSERT INTO escalations (code, level, state, message, created_at) VALUES ('DISK_WARNING', 'L2', 'NOTIFIED', 'disk filling', '2026-03-13T08:00:00')`)
	require.NoError(t, err)
	_, err = stores.Management.Exec(
		`INSERT INTO escalations (code, level, state, message, created_at, resolved_at) VALUES ('OLD_ISSUE', 'L1', 'RESOLVED', 'done', '2026-03-01T08:00:00', '2026-03-02T08:00:00')`)
	require.NoError(t, err)

	require.NoError(t, audit.New(stores.Audit, clock).Log(
		types.RoleResearcher, audit.ActionTaskCreated, "task_1", "catalog samples"))

	path, err := gen.GenerateDaily()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.SharedReportsDir, "2026-03-14", "daily.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(content)

	assert.Contains(t, body, "# Daily Status Report - 2026-03-14")
	assert.Contains(t, body, "Generated: 2026-03-14T09:26:53")
	assert.Contains(t, body, "- Mode: NORMAL")
	assert.Contains(t, body, "- completed: 1")
	assert.Contains(t, body, "- pending: 1")
	assert.Contains(t, body, "Pending backlog: 1")
	assert.Contains(t, body, "Active: 1")
	assert.Contains(t, body, "- L2: 1")
	assert.Contains(t, body, "| 2026-03-14T09:26:53 | researcher | task_created | task_1 |")

	var rec types.Report
	require.NoError(t, stores.Shared.Get(&rec,
		`SELECT id, type, path, generated_at FROM reports WHERE type = 'daily'`))
	assert.Equal(t, path, rec.Path)
	assert.Equal(t, "2026-03-14T09:26:53", rec.GeneratedAt)

	var details string
	require.NoError(t, stores.Audit.Get(&details,
		`SELECT details FROM log WHERE action = ? AND target = 'daily'`, audit.ActionReportGenerated))
	assert.Equal(t, "2026-03-14", details)
}

func TestGenerateDailyQuietSystem(t *testing.T) {
	gen, _, _, _ := newTestGenerator(t)

	path, err := gen.GenerateDaily()
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(content)

	assert.Contains(t, body, "No tasks created today.")
	assert.Contains(t, body, "Pending backlog: 0")
	assert.Contains(t, body, "Active: 0")
}

func TestGenerateWeekly(t *testing.T) {
	gen, stores, paths, clock := newTestGenerator(t)
	q := queue.New(stores.Research, paths, clock)

	id, err := q.CreateTask("this week", "")
	require.NoError(t, err)
	require.NoError(t, q.UpdateTaskStatus(id, types.TaskCompleted, ""))

	// Outside the window on both created_at and completed_at.
	_, err = stores.Research.Exec(
		`INSERT INTO tasks (name, status, created_at, updated_at, completed_at) VALUES ('stale', 'completed', '2026-03-04T09:00:00', '2026-03-04T10:00:00', '2026-03-04T10:00:00')`)
	require.NoError(t, err)

	_, err = stores.Management.Exec(
		`INSERT INTO escalations (code, level, state, message, created_at, resolved_at) VALUES ('RECENT_FIX', 'L1', 'RESOLVED', 'fixed', '2026-03-11T08:00:00', '2026-03-12T10:00:00')`)
	require.NoError(t, err)
	_, err = stores.Management.Exec(
		`INSERT INTO escalations (code, level, state, message, created_at, resolved_at) VALUES ('ANCIENT_FIX', 'L1', 'RESOLVED', 'fixed', '2026-02-20T08:00:00', '2026-02-22T10:00:00')`)
	require.NoError(t, err)
	_, err = stores.Management.Exec(
		`INSERT INTO escalations (code, level, state, message, created_at) VALUES ('STILL_OPEN', 'L3', 'REMINDED', 'open', '2026-03-10T08:00:00')`)
	require.NoError(t, err)

	path, err := gen.GenerateWeekly()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.SharedReportsDir, "2026-03-14", "weekly.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(content)

	assert.Contains(t, body, "# Weekly Summary - 2026-03-07 to 2026-03-14")
	assert.Contains(t, body, "- completed: 1")
	assert.NotContains(t, body, "- completed: 2")
	assert.Contains(t, body, "Completed this week: 1")
	assert.Contains(t, body, "- Resolved this week: 1")
	assert.Contains(t, body, "- Still active: 1")
}

func TestTemplateOverride(t *testing.T) {
	gen, _, paths, _ := newTestGenerator(t)

	override := filepath.Join(paths.SharedTemplatesDir, DailyTemplate)
	require.NoError(t, os.WriteFile(override, []byte("custom report for {{.Date}}\n"), 0o644))

	path, err := gen.GenerateDaily()
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom report for 2026-03-14\n", string(content))
}

func TestListReports(t *testing.T) {
	gen, _, _, clock := newTestGenerator(t)

	_, err := gen.GenerateDaily()
	require.NoError(t, err)
	clock.Advance(1 * time.Hour)
	_, err = gen.GenerateWeekly()
	require.NoError(t, err)

	all, err := gen.ListReports("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "weekly", all[0].Type)
	assert.Equal(t, "daily", all[1].Type)

	daily, err := gen.ListReports("daily")
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "daily", daily[0].Type)
}
