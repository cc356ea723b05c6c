/*
Package audit provides the append-only, checksummed audit trail.

Every actor in the system — both daemons, every CLI command, the access
gates — records what it did through this package. The trail is the
ground truth for incident review and one of the recovery gate's
preconditions: leaving LOCKDOWN requires VerifyIntegrity to pass.

# Entry Format

Each entry carries a SHA-256 checksum over its own fields:

	sha256("<timestamp>|<role>|<action>|<target>|<details>")

with NULL target/details hashed as the empty string. The checksum makes
casual tampering with the SQLite file detectable: editing any field of
a row without recomputing its hash fails verification. It is not a hash
chain; deleting a whole row is not detected, which is an accepted limit
of the design.

Roles are the three actors (researcher, director, system). Actions are
the package-level constants; details are free-form.

# Usage

	auditor := audit.New(stores.Audit, clock)

	if err := auditor.Log(types.RoleSystem, audit.ActionTaskStarted,
		"task_42", "Processing started"); err != nil {
		return err
	}

	ok, err := auditor.VerifyIntegrity()

The audit trail is not the log stream: pkg/log output is operator
diagnostics and can be lost or rotated freely, while this trail is
durable evidence. Components write both, for different readers.

# Integration Points

  - pkg/access: role_violation and lockdown_access_denied entries
  - pkg/escalation, pkg/processor, pkg/watchdog: lifecycle and
    per-item entries
  - pkg/recovery: VerifyIntegrity as a recovery precondition
  - cmd/institute: audit tail rendering via Recent

# See Also

  - pkg/storage for the audit store schema and handle
*/
package audit
