/*
Package storage opens and bootstraps the five SQLite stores backing the
institute control plane.

This package is the connection layer only: it owns driver configuration,
schemas, seeding, the integrity predicate, and the small cross-cutting
accessors (runtime config, heartbeats). Domain queries live with their
owners — pkg/audit runs audit SQL, pkg/queue runs task SQL, and so on —
so each store's semantics stay next to the component that defines them.

# Architecture

	┌────────────────────── STORES ────────────────────────────┐
	│                                                          │
	│   db/system.db      system_mode (append-only history)    │
	│                     heartbeats  (component liveness)     │
	│                                                          │
	│   db/research.db    tasks       (queue rows)             │
	│                                                          │
	│   db/management.db  escalations (ladder records)         │
	│                     config      (runtime tunables)       │
	│                                                          │
	│   db/shared.db      reports     (generated artifacts)    │
	│                                                          │
	│   db/audit.db       log         (checksummed, append-    │
	│                                  only)                   │
	└──────────────────────────────────────────────────────────┘

Five separate files rather than one database: the watchdog and the
recovery gate verify each store independently (PRAGMA integrity_check
per file), and corruption in one store must not take down the verdict
for the others.

# Driver

The stores use modernc.org/sqlite (CGo-free) through database/sql and
sqlx. Every handle opens with:

	journal_mode(WAL)     daemon writers and CLI readers coexist
	synchronous(NORMAL)   WAL-appropriate durability
	foreign_keys(ON)
	busy_timeout(5000)    writers queue instead of erroring

and a single connection per handle, which keeps each process's
transactions on one WAL session. Cross-process concurrency is SQLite's
own file locking plus the busy timeout; the control plane adds the task
processor's PID lock (pkg/queue) on top for its scan-move-update
sequence.

# Bootstrap

Schema creation is not the daemons' job. cmd/institute-init calls
Bootstrap, which applies CREATE IF NOT EXISTS schemas and seeds:

  - the initial NORMAL row in system_mode (the mode history invariant
    needs a defined starting point)
  - the four recognized config keys at their defaults, without touching
    operator-set values

Bootstrap is idempotent; tests call it against t.TempDir() trees.

# Integrity

IntegrityCheck runs PRAGMA integrity_check against one database file on
a fresh connection; a missing file fails. IntegrityCheckAll walks the
five stores in the fixed order (system, research, management, shared,
audit) that the recovery gate and the watchdog report in.

# Usage

	paths := config.NewPaths(basePath)
	stores, err := storage.Open(paths)
	if err != nil {
		return err
	}
	defer stores.Close()

	enabled := stores.ConfigValue(config.KeyAutoLockdownEnabled, "true")

	for _, res := range stores.IntegrityCheckAll() {
		if !res.OK {
			// emit DB_INTEGRITY_<NAME>
		}
	}

# Integration Points

  - pkg/audit, pkg/state, pkg/queue, pkg/escalation, pkg/recovery,
    pkg/report: run their SQL through these handles
  - pkg/watchdog: IntegrityCheckAll for the integrity probe,
    UpsertHeartbeat for its own liveness row
  - cmd/institute-init: Bootstrap
  - test/integration: Bootstrap against temp trees

# See Also

  - pkg/config for the path layout and recognized keys
  - pkg/audit for the checksum rules the audit schema serves
*/
package storage
