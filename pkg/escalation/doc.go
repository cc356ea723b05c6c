/*
Package escalation turns watchdog alerts into escalations and walks
them up the attention ladder until the director responds.

# Ladder

	L1 ──24h──▶ L2 ──48h──▶ L3 ──72h──▶ L4 ──168h──▶ LOCKDOWN

Every escalation enters at L1, regardless of alert severity; the
ladder measures neglect, not seriousness. An escalation sits at its
level until acknowledged or resolved; once it has waited longer than
the level's threshold since the last notification, it is promoted one
rung and the director is notified again. Past the L4 threshold the
engine triggers LOCKDOWN (subject to auto_lockdown_enabled) — once,
not every tick.

Escalations are keyed by code (DISK_CRITICAL, DB_INTEGRITY_AUDIT, …).
A repeat alert for a live escalation refreshes its message instead of
opening a second ladder; an acknowledged or resolved escalation keeps
its record as-is.

# Tick

Each engine tick does two passes:

 1. Ingest: read system/alerts/*.json in name order, upsert an
    escalation per file, delete the file. Malformed files are audited
    and left in place.
 2. Promote: apply the ladder rules to every unresolved escalation.
    Per-row failures are audited and skipped.

# State Machine

	DETECTED ─▶ NOTIFIED ◀─▶ REMINDED ─▶ ACKNOWLEDGED ─▶ RESOLVED
	                │                         ▲
	                └── (promotion re-enters NOTIFIED at the new level)

DETECTED is transient; creation notifies immediately. Only NOTIFIED
and REMINDED age toward promotion. ACKNOWLEDGED, RESOLVED and EXPIRED
are terminal for the engine.

# Integration Points

  - pkg/watchdog: produces the alert files this engine ingests
  - pkg/notify: director inbox messages on create, promote, lockdown
  - pkg/state: the LOCKDOWN transition
  - pkg/recovery: counts unhandled escalations as recovery blockers
  - cmd/institute: escalation list / ack / resolve, escalator daemon

# See Also

  - pkg/types for Level, EscalationState and the Escalation row shape
*/
package escalation
