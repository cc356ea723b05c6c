/*
Package state manages the system operational mode.

The mode is the single switch the rest of the control plane keys off:
the task processor asks CanProcessTasks before draining the queue, the
access gate asks CanResearcherAccess before running researcher
commands, and the recovery gate walks the mode machine back to NORMAL.

# Mode Machine

	NORMAL ──(alerts)──▶ ALERT ──▶ PRE-LOCKDOWN ──▶ LOCKDOWN
	   ▲                                               │
	   └────── RECOVERY ◀──(director confirms)─────────┘

Transitions are recorded, not enforced: SetMode appends a row with the
new mode and a reason, and the current mode is simply the latest row.
The append-only history is deliberate — "when did we enter LOCKDOWN and
why" must survive the recovery that follows.

Processing stops in LOCKDOWN and PRE-LOCKDOWN. Researcher access is
blocked only in LOCKDOWN.

# Usage

	mgr := state.New(stores.System, clock)

	ok, err := mgr.CanProcessTasks()
	if err != nil {
		return err
	}
	if !ok {
		rec, _ := mgr.Current()
		// record task_processing_blocked and skip the tick
	}

	err = mgr.SetMode(types.ModeLockdown,
		"Automatic lockdown triggered by L4 escalation: DISK_CRITICAL")

# Integration Points

  - pkg/processor: gates each tick on CanProcessTasks
  - pkg/access: gates researcher commands on CanResearcherAccess
  - pkg/escalation: flips LOCKDOWN on an unhandled L4
  - pkg/recovery: LOCKDOWN → RECOVERY → NORMAL walk
  - cmd/institute: status output

# See Also

  - pkg/types for the mode constants
*/
package state
