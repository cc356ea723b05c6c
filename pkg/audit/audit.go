package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cdw/institute/pkg/types"
)

// Action names recorded in the audit trail. Every component writes
// through these constants so the trail stays greppable; free-form
// strings go in the details column.
const (
	ActionTaskCreated             = "task_created"
	ActionTaskStarted             = "task_started"
	ActionTaskCompleted           = "task_completed"
	ActionTaskFailed              = "task_failed"
	ActionTaskProcessingError     = "task_processing_error"
	ActionTaskProcessingBlocked   = "task_processing_blocked"
	ActionTaskProcessorLockFailed = "task_processor_lock_failed"
	ActionTaskProcessorStarted    = "task_processor_started"
	ActionTaskProcessorStopped    = "task_processor_stopped"

	ActionEscalationCreated         = "escalation_created"
	ActionEscalationEscalated       = "escalation_escalated"
	ActionEscalationAcknowledged    = "escalation_acknowledged"
	ActionEscalationResolved        = "escalation_resolved"
	ActionEscalationCheckError      = "escalation_check_error"
	ActionEscalationProcessingError = "escalation_processing_error"
	ActionEscalationEngineStarted   = "escalation_engine_started"
	ActionEscalationEngineStopped   = "escalation_engine_stopped"
	ActionEscalationEngineError     = "escalation_engine_error"

	ActionWatchdogStarted = "watchdog_started"
	ActionWatchdogStopped = "watchdog_stopped"
	ActionWatchdogError   = "watchdog_error"
	ActionAlertCreated    = "alert_created"

	ActionLockdownTriggered    = "lockdown_triggered"
	ActionLockdownAccessDenied = "lockdown_access_denied"
	ActionRecoveryInitiated    = "recovery_initiated"
	ActionRecoveryCompleted    = "recovery_completed"
	ActionRoleViolation        = "role_violation"

	ActionConfigUpdated   = "config_updated"
	ActionReportGenerated = "report_generated"
)

// Logger appends checksummed entries to the audit store. Writes are
// append-only; nothing in the system updates or deletes a row once it
// lands.
type Logger struct {
	db    *sqlx.DB
	clock types.Clock
}

// New returns a Logger writing through the given audit store handle.
func New(db *sqlx.DB, clock types.Clock) *Logger {
	return &Logger{db: db, clock: clock}
}

// Log appends one entry. Empty target or details are stored as NULL;
// the checksum treats NULL and empty as the same absence.
func (l *Logger) Log(role types.Role, action, target, details string) error {
	timestamp := types.FormatTime(l.clock.Now())
	sum := checksum(timestamp, string(role), action, target, details)

	_, err := l.db.Exec(
		`INSERT INTO log (timestamp, role, action, target, details, checksum) VALUES (?, ?, ?, ?, ?, ?)`,
		timestamp, string(role), action, types.StrPtr(target), types.StrPtr(details), sum,
	)
	if err != nil {
		return &types.StorageError{Op: "audit log " + action, Err: err}
	}
	return nil
}

// Logf is Log with a formatted details string.
func (l *Logger) Logf(role types.Role, action, target, format string, args ...any) error {
	return l.Log(role, action, target, fmt.Sprintf(format, args...))
}

// Recent returns the newest limit entries, newest first.
func (l *Logger) Recent(limit int) ([]types.AuditEntry, error) {
	var entries []types.AuditEntry
	err := l.db.Select(&entries,
		`SELECT id, timestamp, role, action, target, details, checksum FROM log ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, &types.StorageError{Op: "audit recent", Err: err}
	}
	return entries, nil
}

// VerifyIntegrity recomputes the checksum of every entry in the trail.
// It returns false on the first mismatch. The error covers storage
// failures only; callers that need a verdict should treat an error as
// not verified.
func (l *Logger) VerifyIntegrity() (bool, error) {
	rows, err := l.db.Queryx(`SELECT timestamp, role, action, target, details, checksum FROM log`)
	if err != nil {
		return false, &types.StorageError{Op: "audit verify", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var entry types.AuditEntry
		if err := rows.StructScan(&entry); err != nil {
			return false, &types.StorageError{Op: "audit verify scan", Err: err}
		}
		computed := checksum(
			entry.Timestamp, string(entry.Role), entry.Action,
			types.StrVal(entry.Target), types.StrVal(entry.Details),
		)
		if computed != entry.Checksum {
			return false, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, &types.StorageError{Op: "audit verify", Err: err}
	}
	return true, nil
}

// checksum hashes the fields that make an entry what it is. Target and
// details fold their NULL case into the empty string so the hash does
// not depend on how absence was stored.
func checksum(timestamp, role, action, target, details string) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s", timestamp, role, action, target, details)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
