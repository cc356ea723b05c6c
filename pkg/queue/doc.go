/*
Package queue manages research tasks in their dual representation: a
row in the research store and a JSON file in the matching queue
directory.

# Dual Representation

	research.db tasks row          queues/research/<status>/<id>.json
	─────────────────────          ──────────────────────────────────
	authoritative status           unit of work for the scan
	full lifecycle record          created by CreateTask
	survives file loss             renamed between dirs on transition

The row always wins. If the file and the row disagree after a crash,
the processor's reconciliation moves the file to wherever the row says
the task is; MoveTask treats a missing source as already-moved so the
repair is repeatable.

Queue directories exist per status:

	queues/research/pending/      waiting for the processor
	queues/research/processing/   picked up this run
	queues/research/completed/    finished successfully
	queues/research/failed/       finished with an error

# Processor Lock

Lock is the PID-file mutex the processor holds while draining. Creation
is O_CREATE|O_EXCL, so exactly one process wins; a collision probes the
recorded PID with signal 0 and clears the file only when the holder is
verifiably gone. Garbage lock content counts as held.

# Usage

	mgr := queue.New(stores.Research, paths, clock)

	id, err := mgr.CreateTask("parse survey batch", "third quarter data")

	lock := queue.NewLock(paths.TaskProcessorLock)
	if !lock.Acquire() {
		// another processor is live; skip this run
	}
	defer lock.Release()

# Integration Points

  - pkg/processor: PendingFiles/ReadTaskFile scan, MoveTask and
    UpdateTaskStatus transitions, Lock around the drain
  - cmd/institute: task create / task list / task status
  - pkg/report: task counts for daily and weekly reports

# See Also

  - pkg/config for the queue directory layout
  - pkg/processor for the drain loop that consumes this package
*/
package queue
