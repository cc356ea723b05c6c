// Package recovery guards the transitions into and out of LOCKDOWN.
//
// Entering lockdown is cheap: one mode transition, taken either by the
// escalation engine (L4 timeout) or by the director through
// TriggerLockdown. Leaving it is the expensive direction — the gate
// re-checks every condition that could have caused or accompanied the
// lockdown before the director's confirmation is accepted:
//
//	VerifyRecoveryConditions
//	  1. mode is actually LOCKDOWN
//	  2. no escalation outside ACKNOWLEDGED / RESOLVED / EXPIRED
//	  3. PRAGMA integrity_check on all five stores
//	  4. audit trail checksum walk
//
// ConfirmRecovery runs the same verification again and only then walks
// the mode machine through its exit path:
//
//	LOCKDOWN ──▶ RECOVERY ──▶ NORMAL
//	          (audited)    (audited)
//
// The intermediate RECOVERY row is kept in the mode history on purpose:
// it records who confirmed and when, separately from the return to
// NORMAL.
//
// # Integration Points
//
//   - pkg/state: mode reads and the two-step exit transition
//   - pkg/audit: lockdown_triggered, recovery_initiated,
//     recovery_completed entries, plus the integrity walk
//   - pkg/storage: per-store integrity checks
//   - cmd/institute: recovery verify / recovery confirm / lockdown
//     trigger / status subcommands
//
// # See Also
//
//   - pkg/escalation for the automatic path into LOCKDOWN
//   - pkg/access for what LOCKDOWN blocks while it lasts
package recovery
