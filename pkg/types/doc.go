/*
Package types defines the core data structures used throughout the institute
control plane.

This package contains the domain model shared by every other package: the
operational mode, the two-role access model, the escalation ladder, research
tasks, watchdog alerts, audit entries, and the clock and error kinds that
the daemons and the CLI build on. Types here map one-to-one onto rows in the
five SQLite stores or onto on-disk artifacts (alert files, task files).

# Architecture

The types package is the foundation of the control plane's data model. It
defines:

  - Operational mode (NORMAL, ALERT, PRE-LOCKDOWN, LOCKDOWN, RECOVERY)
  - Roles (researcher, director, system) and their boundary parsing
  - The escalation ladder (L1 → L2 → L3 → L4) and handling states
  - Research tasks and their dual row/file representation
  - Watchdog alerts (one-shot JSON artifacts)
  - Append-only audit entries with per-row checksums
  - The injectable Clock used by all time-driven behavior
  - Typed error kinds for exit-code and audit mapping

All types are designed to be:
  - Serializable (JSON for files, sqlx tags for rows)
  - Closed enumerations (typed string constants, Valid helpers)
  - Free of behavior that touches storage (that lives in the owning packages)

# Core Types

Operating state:
  - Mode: the system-wide operating mode; append-only history in the
    system store, current mode = latest row
  - ModeRecord: one history row (mode, updated_at, reason)

Access model:
  - Role: researcher, director, or system; ParseRole guards the CLI
    boundary so only the two human roles enter from outside

Escalation ladder:
  - Level: L1..L4, monotone via Next()
  - EscalationState: DETECTED through EXPIRED; Terminal() states are
    sticky against automatic promotion, Handled() states satisfy the
    recovery gate
  - Escalation: the persistent record keyed by unique code

Work items:
  - Task / TaskStatus: the queue lifecycle pending → processing →
    completed | failed
  - TaskFile: the JSON written into the status directory

Monitoring:
  - Alert / Severity: watchdog output consumed by the escalation engine
  - Heartbeat: liveness row mirrored for the watchdog itself

Accountability:
  - AuditEntry: append-only row whose checksum covers
    timestamp|role|action|target|details

# Timestamps

Stored timestamps are ISO-8601 local time without offset at second
precision (TimeLayout). The audit checksum hashes the exact string, so
every writer uses FormatTime and never a raw time.Format. CompactTimestamp
produces the YYYYMMDD_HHMMSS form used in alert and notification
filenames. ParseTime additionally accepts fractional seconds for rows
written by the previous implementation.

# Usage

Creating an alert:

	alert := types.Alert{
		Level:     types.SeverityCritical,
		Code:      "DISK_CRITICAL",
		Message:   "Disk usage at 93.2% (critical threshold: 90%)",
		CreatedAt: types.FormatTime(clock.Now()),
	}

Checking promotion eligibility:

	if !esc.State.Terminal() {
		next := esc.Level.Next()
		// ...
	}

Driving time in tests:

	clk := &types.FixedClock{Instant: start}
	clk.Advance(24 * time.Hour)

Classifying errors at the CLI boundary:

	var policy *types.PolicyError
	if errors.As(err, &policy) {
		os.Exit(1)
	}

# Error Kinds

Errors taxonomize into kinds the CLI can switch on without string
matching:

  - PolicyError: role or mode denial (audited by the raiser)
  - InvariantError: the request would break a state rule
  - StorageError: a database or filesystem primitive failed
  - MalformedError: unparsable input, artifact left in place
  - NotFoundError: lookup miss on a caller-supplied id

Anything not matching these kinds is treated as fatal.

# Integration Points

This package is imported by:

  - pkg/storage: row scanning for all five stores
  - pkg/state: mode history and decision predicates
  - pkg/audit: entries and checksum inputs
  - pkg/queue, pkg/processor: tasks and task files
  - pkg/watchdog: alerts and severities
  - pkg/escalation: ladder levels and states
  - pkg/recovery: handled-state accounting
  - pkg/access: role parsing and policy errors
  - cmd/institute: error-kind to exit-code mapping

# Thread Safety

All types are plain data: read-safe, write-unsynchronized. Cross-process
coordination happens through the durable stores, never through shared
instances of these types.

# See Also

  - pkg/storage for the schemas these types map onto
  - pkg/state for mode semantics
  - pkg/escalation for ladder timing
*/
package types
