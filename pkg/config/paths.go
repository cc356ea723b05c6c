package config

import (
	"os"
	"path/filepath"

	"github.com/cdw/institute/pkg/types"
)

// DefaultBasePath is the institute tree root when no override is given.
const DefaultBasePath = "/institute"

// Runtime tunable keys recognized in the management config table.
const (
	KeyAutoLockdownEnabled   = "auto_lockdown_enabled"
	KeyDiskWarningThreshold  = "disk_warning_threshold"
	KeyDiskCriticalThreshold = "disk_critical_threshold"
	KeyHeartbeatStaleMinutes = "heartbeat_stale_minutes"
)

// Defaults holds the value each recognized key takes when the config
// table has no row for it.
var Defaults = map[string]string{
	KeyAutoLockdownEnabled:   "true",
	KeyDiskWarningThreshold:  "80",
	KeyDiskCriticalThreshold: "90",
	KeyHeartbeatStaleMinutes: "30",
}

// Paths derives every file and directory location from one base path.
// Components never build paths themselves; they take a Paths value so
// tests can point the whole tree at a temp directory.
type Paths struct {
	Base string

	ResearchDir   string
	ManagementDir string
	SharedDir     string
	SystemDir     string
	LogsDir       string
	InboxDir      string
	QueuesDir     string
	DBDir         string

	ResearchDataDir    string
	ResearchScriptsDir string
	ResearchOutputsDir string

	ManagementConfigDir      string
	ManagementEscalationsDir string

	SharedReportsDir   string
	SharedTemplatesDir string

	SystemBinDir       string
	SystemHeartbeatDir string
	SystemAlertsDir    string

	InboxResearcherDir string
	InboxDirectorDir   string

	QueuePendingDir    string
	QueueProcessingDir string
	QueueCompletedDir  string
	QueueFailedDir     string

	MgmtQueuePendingDir     string
	MgmtQueueEscalationsDir string

	SystemDB     string
	ResearchDB   string
	ManagementDB string
	SharedDB     string
	AuditDB      string

	TaskProcessorLock string
}

// NewPaths builds the path layout under base; empty base means
// DefaultBasePath.
func NewPaths(base string) Paths {
	if base == "" {
		base = DefaultBasePath
	}

	p := Paths{Base: base}

	p.ResearchDir = filepath.Join(base, "research")
	p.ManagementDir = filepath.Join(base, "management")
	p.SharedDir = filepath.Join(base, "shared")
	p.SystemDir = filepath.Join(base, "system")
	p.LogsDir = filepath.Join(base, "logs")
	p.InboxDir = filepath.Join(base, "inbox")
	p.QueuesDir = filepath.Join(base, "queues")
	p.DBDir = filepath.Join(base, "db")

	p.ResearchDataDir = filepath.Join(p.ResearchDir, "data")
	p.ResearchScriptsDir = filepath.Join(p.ResearchDir, "scripts")
	p.ResearchOutputsDir = filepath.Join(p.ResearchDir, "outputs")

	p.ManagementConfigDir = filepath.Join(p.ManagementDir, "config")
	p.ManagementEscalationsDir = filepath.Join(p.ManagementDir, "escalations")

	p.SharedReportsDir = filepath.Join(p.SharedDir, "reports")
	p.SharedTemplatesDir = filepath.Join(p.SharedDir, "templates")

	p.SystemBinDir = filepath.Join(p.SystemDir, "bin")
	p.SystemHeartbeatDir = filepath.Join(p.SystemDir, "heartbeat")
	p.SystemAlertsDir = filepath.Join(p.SystemDir, "alerts")

	p.InboxResearcherDir = filepath.Join(p.InboxDir, "researcher")
	p.InboxDirectorDir = filepath.Join(p.InboxDir, "director")

	researchQueues := filepath.Join(p.QueuesDir, "research")
	p.QueuePendingDir = filepath.Join(researchQueues, "pending")
	p.QueueProcessingDir = filepath.Join(researchQueues, "processing")
	p.QueueCompletedDir = filepath.Join(researchQueues, "completed")
	p.QueueFailedDir = filepath.Join(researchQueues, "failed")

	mgmtQueues := filepath.Join(p.QueuesDir, "management")
	p.MgmtQueuePendingDir = filepath.Join(mgmtQueues, "pending")
	p.MgmtQueueEscalationsDir = filepath.Join(mgmtQueues, "escalations")

	p.SystemDB = filepath.Join(p.DBDir, "system.db")
	p.ResearchDB = filepath.Join(p.DBDir, "research.db")
	p.ManagementDB = filepath.Join(p.DBDir, "management.db")
	p.SharedDB = filepath.Join(p.DBDir, "shared.db")
	p.AuditDB = filepath.Join(p.DBDir, "audit.db")

	p.TaskProcessorLock = filepath.Join(p.SystemDir, "task_processor.lock")

	return p
}

// QueueDir returns the directory a task file lives in for the given
// status.
func (p Paths) QueueDir(status types.TaskStatus) (string, bool) {
	switch status {
	case types.TaskPending:
		return p.QueuePendingDir, true
	case types.TaskProcessing:
		return p.QueueProcessingDir, true
	case types.TaskCompleted:
		return p.QueueCompletedDir, true
	case types.TaskFailed:
		return p.QueueFailedDir, true
	}
	return "", false
}

// HeartbeatFile returns the touch file a daemon refreshes each pass.
// The watchdog reads these ages; daemons write them.
func (p Paths) HeartbeatFile(component string) string {
	return filepath.Join(p.SystemHeartbeatDir, component)
}

// InboxFor returns the inbox directory for a role; system has no inbox.
func (p Paths) InboxFor(role types.Role) (string, bool) {
	switch role {
	case types.RoleResearcher:
		return p.InboxResearcherDir, true
	case types.RoleDirector:
		return p.InboxDirectorDir, true
	}
	return "", false
}

// Databases returns name → path for the five stores, in the fixed
// verification order the recovery gate reports in.
func (p Paths) Databases() []struct{ Name, Path string } {
	return []struct{ Name, Path string }{
		{"system", p.SystemDB},
		{"research", p.ResearchDB},
		{"management", p.ManagementDB},
		{"shared", p.SharedDB},
		{"audit", p.AuditDB},
	}
}

// EnsureDirectories creates the whole tree. Idempotent; used by the
// bootstrap tool and by tests.
func (p Paths) EnsureDirectories() error {
	dirs := []string{
		p.ResearchDir, p.ResearchDataDir, p.ResearchScriptsDir, p.ResearchOutputsDir,
		p.ManagementDir, p.ManagementConfigDir, p.ManagementEscalationsDir,
		p.SharedDir, p.SharedReportsDir, p.SharedTemplatesDir,
		p.SystemDir, p.SystemBinDir, p.SystemHeartbeatDir, p.SystemAlertsDir,
		p.LogsDir,
		p.InboxDir, p.InboxResearcherDir, p.InboxDirectorDir,
		p.QueuesDir,
		p.QueuePendingDir, p.QueueProcessingDir, p.QueueCompletedDir, p.QueueFailedDir,
		p.MgmtQueuePendingDir, p.MgmtQueueEscalationsDir,
		p.DBDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
