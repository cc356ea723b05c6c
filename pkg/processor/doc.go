// Package processor drains the pending research queue.
//
// A pass holds the PID lock for its whole duration and walks every
// pending task through the same lifecycle the queue package maintains:
//
//	pending/ ──▶ processing/ ──▶ completed/
//	                       └───▶ failed/
//
// with the task row updated in lockstep at each hop. The pass is
// preceded by reconciliation: rows an earlier pass left stuck at
// processing are returned to pending, their files moved back, so a
// crash never strands a task.
//
// Two gates short-circuit a pass before any task moves:
//
//   - mode: LOCKDOWN and PRE-LOCKDOWN halt processing; the skipped
//     pass is audited as task_processing_blocked
//   - lock: a live concurrent holder wins; audited as
//     task_processor_lock_failed
//
// Execution itself is delegated to a Runner. The default runner
// accepts everything; deployments install their own. A Runner error
// sends the task to failed/ and counts as a processed task — only
// storage and parse faults skip a file, audited as
// task_processing_error.
//
// The processor maintains system/heartbeat/task_processor, refreshed
// after every task and at the end of each pass while the lock is held.
// The watchdog turns a stale file into an alert, so a long outage
// feeds the escalation ladder on its own.
//
// # Usage
//
//	p := processor.New(stores, types.SystemClock{})
//	p.Runner = myRunner
//	n, err := p.ProcessPending()   // one-shot
//	err = p.Run(ctx, time.Minute)  // daemon
//
// # See Also
//
//   - pkg/queue for the dual row/file representation this package walks
//   - pkg/watchdog for the heartbeat consumer
package processor
