package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/types"
)

// Manager owns the task queue: the rows in the research store and the
// JSON files mirrored under queues/research/<status>/. The row is
// authoritative for status; the file is the unit of work the processor
// scans for.
type Manager struct {
	db    *sqlx.DB
	paths config.Paths
	clock types.Clock
}

// New returns a Manager over the research store and queue directories.
func New(db *sqlx.DB, paths config.Paths, clock types.Clock) *Manager {
	return &Manager{db: db, paths: paths, clock: clock}
}

// CreateTask inserts a pending row and writes the matching file into
// the pending queue. Returns the new task ID.
func (m *Manager) CreateTask(name, description string) (int64, error) {
	now := types.FormatTime(m.clock.Now())

	res, err := m.db.Exec(
		`INSERT INTO tasks (name, description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		name, types.StrPtr(description), string(types.TaskPending), now, now,
	)
	if err != nil {
		return 0, &types.StorageError{Op: "create task", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &types.StorageError{Op: "create task id", Err: err}
	}

	file := types.TaskFile{
		ID:          id,
		Name:        name,
		Description: types.StrPtr(description),
		CreatedAt:   now,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode task %d: %w", id, err)
	}
	path := filepath.Join(m.paths.QueuePendingDir, fmt.Sprintf("%d.json", id))
	if err := os.MkdirAll(m.paths.QueuePendingDir, 0o755); err != nil {
		return 0, fmt.Errorf("create pending queue: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write task file %s: %w", path, err)
	}

	return id, nil
}

// Task returns one task by ID.
func (m *Manager) Task(id int64) (types.Task, error) {
	var task types.Task
	err := m.db.Get(&task,
		`SELECT id, name, description, status, created_at, updated_at, completed_at, error_message
		 FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Task{}, &types.NotFoundError{Kind: "task", ID: id}
	}
	if err != nil {
		return types.Task{}, &types.StorageError{Op: "get task", Err: err}
	}
	return task, nil
}

// ListTasks returns tasks newest first, optionally filtered by status.
// An empty status lists everything.
func (m *Manager) ListTasks(status types.TaskStatus) ([]types.Task, error) {
	query := `SELECT id, name, description, status, created_at, updated_at, completed_at, error_message
	          FROM tasks ORDER BY created_at DESC, id DESC`
	args := []any{}
	if status != "" {
		query = `SELECT id, name, description, status, created_at, updated_at, completed_at, error_message
		         FROM tasks WHERE status = ? ORDER BY created_at DESC, id DESC`
		args = append(args, string(status))
	}

	var tasks []types.Task
	if err := m.db.Select(&tasks, query, args...); err != nil {
		return nil, &types.StorageError{Op: "list tasks", Err: err}
	}
	return tasks, nil
}

// UpdateTaskStatus updates the row for a lifecycle transition.
// Completed tasks get completed_at stamped; failed tasks record the
// error message.
func (m *Manager) UpdateTaskStatus(id int64, status types.TaskStatus, errorMessage string) error {
	if !status.Valid() {
		return &types.InvariantError{Msg: fmt.Sprintf("invalid task status: %q", status)}
	}
	now := types.FormatTime(m.clock.Now())

	var err error
	switch status {
	case types.TaskCompleted:
		_, err = m.db.Exec(
			`UPDATE tasks SET status = ?, updated_at = ?, completed_at = ? WHERE id = ?`,
			string(status), now, now, id)
	case types.TaskFailed:
		_, err = m.db.Exec(
			`UPDATE tasks SET status = ?, updated_at = ?, error_message = ? WHERE id = ?`,
			string(status), now, types.StrPtr(errorMessage), id)
	default:
		_, err = m.db.Exec(
			`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), now, id)
	}
	if err != nil {
		return &types.StorageError{Op: "update task status", Err: err}
	}
	return nil
}

// MoveTask renames the task file between queue directories. A missing
// source file is not an error: reconciliation and crash recovery lean
// on the move being repeatable.
func (m *Manager) MoveTask(id int64, from, to types.TaskStatus) error {
	fromDir, ok := m.paths.QueueDir(from)
	if !ok {
		return &types.InvariantError{Msg: fmt.Sprintf("unknown queue status: %q", from)}
	}
	toDir, ok := m.paths.QueueDir(to)
	if !ok {
		return &types.InvariantError{Msg: fmt.Sprintf("unknown queue status: %q", to)}
	}

	name := fmt.Sprintf("%d.json", id)
	source := filepath.Join(fromDir, name)
	dest := filepath.Join(toDir, name)

	if _, err := os.Stat(source); os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return fmt.Errorf("create queue dir %s: %w", toDir, err)
	}
	if err := os.Rename(source, dest); err != nil {
		return fmt.Errorf("move task %d %s -> %s: %w", id, from, to, err)
	}
	return nil
}

// PendingFiles returns the task files waiting in the pending queue,
// sorted by name. The processor walks this list in order.
func (m *Manager) PendingFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(m.paths.QueuePendingDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan pending queue: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadTaskFile decodes one queue file.
func (m *Manager) ReadTaskFile(path string) (types.TaskFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.TaskFile{}, &types.MalformedError{Source: path, Err: err}
	}
	var file types.TaskFile
	if err := json.Unmarshal(data, &file); err != nil {
		return types.TaskFile{}, &types.MalformedError{Source: path, Err: err}
	}
	return file, nil
}

// QueueFileStatus reports which queue directory currently holds the
// file for a task, scanning in lifecycle order.
func (m *Manager) QueueFileStatus(id int64) (types.TaskStatus, bool) {
	name := fmt.Sprintf("%d.json", id)
	for _, status := range types.TaskStatuses {
		dir, _ := m.paths.QueueDir(status)
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return status, true
		}
	}
	return "", false
}
