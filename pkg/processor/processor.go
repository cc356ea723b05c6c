package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/log"
	"github.com/cdw/institute/pkg/metrics"
	"github.com/cdw/institute/pkg/queue"
	"github.com/cdw/institute/pkg/state"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

const component = "task_processor"

// Processor drains the pending research queue. One pass moves each
// task through processing into completed or failed, keeping the row
// and the queue file in step. A PID lock keeps passes from different
// processes off each other's tasks.
type Processor struct {
	stores  *storage.Stores
	paths   config.Paths
	clock   types.Clock
	queue   *queue.Manager
	state   *state.Manager
	auditor *audit.Logger
	lock    *queue.Lock

	// Runner may be replaced before the first pass.
	Runner Runner
}

// New builds a Processor over the opened stores.
func New(stores *storage.Stores, clock types.Clock) *Processor {
	paths := stores.Paths()
	return &Processor{
		stores:  stores,
		paths:   paths,
		clock:   clock,
		queue:   queue.New(stores.Research, paths, clock),
		state:   state.New(stores.System, clock),
		auditor: audit.New(stores.Audit, clock),
		lock:    queue.NewLock(paths.TaskProcessorLock),
		Runner:  successRunner{},
	}
}

// Run executes passes until the context is cancelled. The pass in
// flight always completes; cancellation is observed between passes.
func (p *Processor) Run(ctx context.Context, interval time.Duration) error {
	log.Logger.Info().Dur("interval", interval).Msg("Task processor starting")
	if err := p.auditor.Log(types.RoleSystem, audit.ActionTaskProcessorStarted, "", ""); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := p.Tick(); err != nil {
			metrics.TickErrors.WithLabelValues(component).Inc()
			log.Logger.Error().Err(err).Msg("Task processing pass failed")
			p.auditor.Log(types.RoleSystem, audit.ActionTaskProcessingError, "", err.Error())
		} else if n > 0 {
			log.Logger.Info().Int("count", n).Msg("Processed pending tasks")
		}

		select {
		case <-ctx.Done():
			log.Logger.Info().Msg("Task processor stopping")
			return p.auditor.Log(types.RoleSystem, audit.ActionTaskProcessorStopped, "", "")
		case <-ticker.C:
		}
	}
}

// Tick runs one timed pass.
func (p *Processor) Tick() (int, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.TickDuration, component)
	return p.ProcessPending()
}

// ProcessPending drains the pending queue once and reports how many
// tasks reached a terminal status. Blocked modes and a held lock both
// return zero without error; each leaves an audit entry explaining the
// skipped pass.
func (p *Processor) ProcessPending() (int, error) {
	ok, err := p.state.CanProcessTasks()
	if err != nil {
		return 0, err
	}
	if !ok {
		rec, err := p.state.Current()
		if err != nil {
			return 0, err
		}
		metrics.ProcessingBlocked.Inc()
		log.Logger.Warn().Str("mode", string(rec.Mode)).Msg("Task processing blocked")
		return 0, p.auditor.Log(types.RoleSystem, audit.ActionTaskProcessingBlocked, "",
			fmt.Sprintf("Mode: %s, Reason: %s", rec.Mode, rec.Reason))
	}

	if !p.lock.Acquire() {
		return 0, p.auditor.Log(types.RoleSystem, audit.ActionTaskProcessorLockFailed, "", "")
	}
	defer p.lock.Release()

	if err := p.reconcile(); err != nil {
		return 0, err
	}

	files, err := p.queue.PendingFiles()
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, path := range files {
		if err := p.processFile(path); err != nil {
			log.Logger.Warn().Err(err).Str("file", path).Msg("Task file not processed")
			p.auditor.Log(types.RoleSystem, audit.ActionTaskProcessingError, path, err.Error())
		} else {
			processed++
		}
		if err := p.writeHeartbeat(); err != nil {
			return processed, err
		}
	}

	return processed, p.writeHeartbeat()
}

// reconcile returns interrupted work to the pending queue. A row stuck
// at processing means an earlier pass died mid-task: the row flips
// back to pending, and a file still sitting in processing/ moves back
// with it so the coming scan retries the task.
func (p *Processor) reconcile() error {
	var ids []int64
	err := p.stores.Research.Select(&ids,
		`SELECT id FROM tasks WHERE status = 'processing' ORDER BY id`)
	if err != nil {
		return &types.StorageError{Op: "list interrupted tasks", Err: err}
	}

	for _, id := range ids {
		if err := p.queue.MoveTask(id, types.TaskProcessing, types.TaskPending); err != nil {
			return err
		}
		if err := p.queue.UpdateTaskStatus(id, types.TaskPending, ""); err != nil {
			return err
		}
		log.Logger.Warn().Int64("task", id).Msg("Requeued task interrupted mid-processing")
	}
	return nil
}

// processFile walks one task through its lifecycle. A failed Runner is
// a processed task (it lands in failed/); only storage and parse
// faults come back as errors.
func (p *Processor) processFile(path string) error {
	task, err := p.queue.ReadTaskFile(path)
	if err != nil {
		return err
	}

	if err := p.queue.MoveTask(task.ID, types.TaskPending, types.TaskProcessing); err != nil {
		return err
	}
	if err := p.queue.UpdateTaskStatus(task.ID, types.TaskProcessing, ""); err != nil {
		return err
	}
	if err := p.auditor.Log(types.RoleSystem, audit.ActionTaskStarted, taskTarget(task.ID), task.Name); err != nil {
		return err
	}

	if execErr := p.Runner.Execute(task); execErr != nil {
		log.Logger.Warn().Err(execErr).Int64("task", task.ID).Msg("Task execution failed")
		if err := p.queue.MoveTask(task.ID, types.TaskProcessing, types.TaskFailed); err != nil {
			return err
		}
		if err := p.queue.UpdateTaskStatus(task.ID, types.TaskFailed, "Task execution failed"); err != nil {
			return err
		}
		metrics.TasksFailed.Inc()
		return p.auditor.Log(types.RoleSystem, audit.ActionTaskFailed, taskTarget(task.ID), "")
	}

	if err := p.queue.MoveTask(task.ID, types.TaskProcessing, types.TaskCompleted); err != nil {
		return err
	}
	if err := p.queue.UpdateTaskStatus(task.ID, types.TaskCompleted, ""); err != nil {
		return err
	}
	metrics.TasksProcessed.Inc()
	log.Logger.Info().Int64("task", task.ID).Str("name", task.Name).Msg("Task completed")
	return p.auditor.Log(types.RoleSystem, audit.ActionTaskCompleted, taskTarget(task.ID), "")
}

// writeHeartbeat refreshes the touch file the watchdog ages. Written
// only while the lock is held, so a blocked processor goes stale and
// the watchdog notices.
func (p *Processor) writeHeartbeat() error {
	path := p.paths.HeartbeatFile(component)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &types.StorageError{Op: "create heartbeat dir", Err: err}
	}
	if err := os.WriteFile(path, []byte(types.FormatTime(p.clock.Now())), 0o644); err != nil {
		return &types.StorageError{Op: "write heartbeat", Err: err}
	}
	return nil
}

func taskTarget(id int64) string { return fmt.Sprintf("task_%d", id) }
