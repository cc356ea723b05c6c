package types

import "fmt"

// Mode represents the operational mode of the institute
type Mode string

const (
	ModeNormal      Mode = "NORMAL"
	ModeAlert       Mode = "ALERT"
	ModePreLockdown Mode = "PRE-LOCKDOWN"
	ModeLockdown    Mode = "LOCKDOWN"
	ModeRecovery    Mode = "RECOVERY"
)

// ValidModes lists every mode the state manager accepts.
var ValidModes = []Mode{ModeNormal, ModeAlert, ModePreLockdown, ModeLockdown, ModeRecovery}

// Valid reports whether m is a recognized operational mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeNormal, ModeAlert, ModePreLockdown, ModeLockdown, ModeRecovery:
		return true
	}
	return false
}

// Role identifies who is performing an action
type Role string

const (
	RoleResearcher Role = "researcher"
	RoleDirector   Role = "director"
	RoleSystem     Role = "system"
)

// ParseRole converts an untrusted string (CLI flag) into a Role.
// Only the two human roles are accepted at the boundary; RoleSystem
// is reserved for the daemons.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleResearcher:
		return RoleResearcher, nil
	case RoleDirector:
		return RoleDirector, nil
	}
	return "", fmt.Errorf("invalid role: %q (must be researcher or director)", s)
}

// Level is a rung on the escalation ladder
type Level string

const (
	LevelL1 Level = "L1"
	LevelL2 Level = "L2"
	LevelL3 Level = "L3"
	LevelL4 Level = "L4"
)

// Levels is the ladder in ascending order.
var Levels = []Level{LevelL1, LevelL2, LevelL3, LevelL4}

// Next returns the level one rung above l, or l itself at the top.
func (l Level) Next() Level {
	for i, lv := range Levels {
		if lv == l && i < len(Levels)-1 {
			return Levels[i+1]
		}
	}
	return l
}

// EscalationState represents the handling state of an escalation
type EscalationState string

const (
	EscalationDetected     EscalationState = "DETECTED"
	EscalationNotified     EscalationState = "NOTIFIED"
	EscalationReminded     EscalationState = "REMINDED"
	EscalationAcknowledged EscalationState = "ACKNOWLEDGED"
	EscalationResolved     EscalationState = "RESOLVED"
	EscalationExpired      EscalationState = "EXPIRED"
)

// Terminal reports whether automatic promotion must never touch this state.
func (s EscalationState) Terminal() bool {
	switch s {
	case EscalationAcknowledged, EscalationResolved, EscalationExpired:
		return true
	}
	return false
}

// Handled reports whether the recovery gate counts this state as dealt with.
func (s EscalationState) Handled() bool {
	switch s {
	case EscalationAcknowledged, EscalationResolved, EscalationExpired:
		return true
	}
	return false
}

// Severity classifies a watchdog alert
type Severity string

const (
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// TaskStatus represents the lifecycle state of a research task
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// TaskStatuses lists the queue directories in lifecycle order.
var TaskStatuses = []TaskStatus{TaskPending, TaskProcessing, TaskCompleted, TaskFailed}

// Valid reports whether s names a queue state.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskProcessing, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

// Task is a research work item. The database row is authoritative for
// status; the JSON file in the matching queue directory is the unit of
// work for the processor scan.
type Task struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Description  *string    `db:"description" json:"description"`
	Status       TaskStatus `db:"status" json:"status"`
	CreatedAt    string     `db:"created_at" json:"created_at"`
	UpdatedAt    string     `db:"updated_at" json:"updated_at"`
	CompletedAt  *string    `db:"completed_at" json:"completed_at,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
}

// TaskFile is the on-disk JSON shape written next to a task row.
type TaskFile struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// Escalation is the persistent record of an unresolved anomaly,
// identified by a unique code.
type Escalation struct {
	ID             int64           `db:"id"`
	Code           string          `db:"code"`
	Level          Level           `db:"level"`
	State          EscalationState `db:"state"`
	Message        string          `db:"message"`
	CreatedAt      string          `db:"created_at"`
	NotifiedAt     *string         `db:"notified_at"`
	RemindedAt     *string         `db:"reminded_at"`
	AcknowledgedAt *string         `db:"acknowledged_at"`
	ResolvedAt     *string         `db:"resolved_at"`
	ResolutionNote *string         `db:"resolution_note"`
}

// Alert is the one-shot artifact the watchdog writes and the escalation
// engine consumes. Level is named "level" on the wire for compatibility
// with existing alert files.
type Alert struct {
	Level     Severity `json:"level"`
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	CreatedAt string   `json:"created_at"`
}

// ModeRecord is one row of the append-only mode history.
type ModeRecord struct {
	ID        int64  `db:"id"`
	Mode      Mode   `db:"mode"`
	UpdatedAt string `db:"updated_at"`
	Reason    string `db:"reason"`
}

// AuditEntry is one row of the append-only audit log. Checksum covers
// timestamp|role|action|target|details with absent fields as "".
type AuditEntry struct {
	ID        int64   `db:"id"`
	Timestamp string  `db:"timestamp"`
	Role      Role    `db:"role"`
	Action    string  `db:"action"`
	Target    *string `db:"target"`
	Details   *string `db:"details"`
	Checksum  string  `db:"checksum"`
}

// Heartbeat mirrors a component's liveness in the system store.
type Heartbeat struct {
	Component string `db:"component"`
	LastBeat  string `db:"last_beat"`
	Status    string `db:"status"`
}

// Report records a generated report file.
type Report struct {
	ID          int64  `db:"id"`
	Type        string `db:"type"`
	Path        string `db:"path"`
	GeneratedAt string `db:"generated_at"`
}

// ConfigEntry is one runtime tunable from the management store.
type ConfigEntry struct {
	Key       string `db:"key"`
	Value     string `db:"value"`
	UpdatedAt string `db:"updated_at"`
}

// StrPtr returns a pointer to s; nil when s is empty. Nullable audit and
// escalation columns use pointers, and call sites mostly hold plain strings.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StrVal dereferences p, treating nil as the empty string.
func StrVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
