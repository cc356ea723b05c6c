package watchdog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/log"
	"github.com/cdw/institute/pkg/metrics"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

// Alert codes the watchdog emits. Database integrity codes append the
// upper-cased store name to the prefix.
const (
	CodeDiskWarning                 = "DISK_WARNING"
	CodeDiskCritical                = "DISK_CRITICAL"
	CodeHeartbeatStaleTaskProcessor = "HEARTBEAT_STALE_TASK_PROCESSOR"

	dbIntegrityPrefix = "DB_INTEGRITY_"
)

const (
	watchdogComponent      = "watchdog"
	taskProcessorComponent = "task_processor"
)

// Watchdog probes system health each tick and drops alert files for
// the escalation engine. It never escalates or locks down by itself;
// detection and response stay in separate daemons.
type Watchdog struct {
	stores  *storage.Stores
	paths   config.Paths
	clock   types.Clock
	auditor *audit.Logger

	// diskUsage is swapped out by tests; the default reads the real
	// filesystem.
	diskUsage func(path string) float64
}

// New builds a Watchdog over the opened stores.
func New(stores *storage.Stores, clock types.Clock) *Watchdog {
	return &Watchdog{
		stores:    stores,
		paths:     stores.Paths(),
		clock:     clock,
		auditor:   audit.New(stores.Audit, clock),
		diskUsage: diskUsagePercent,
	}
}

// Run executes ticks until the context is cancelled. The tick in
// flight always completes; cancellation is observed between ticks.
func (w *Watchdog) Run(ctx context.Context, interval time.Duration) error {
	log.Logger.Info().Dur("interval", interval).Msg("Watchdog starting")
	if err := w.auditor.Log(types.RoleSystem, audit.ActionWatchdogStarted, "", ""); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.Tick(); err != nil {
			metrics.TickErrors.WithLabelValues(watchdogComponent).Inc()
			log.Logger.Error().Err(err).Msg("Watchdog check failed")
			w.auditor.Log(types.RoleSystem, audit.ActionWatchdogError, "", err.Error())
		}

		select {
		case <-ctx.Done():
			log.Logger.Info().Msg("Watchdog stopping")
			return w.auditor.Log(types.RoleSystem, audit.ActionWatchdogStopped, "", "")
		case <-ticker.C:
		}
	}
}

// Tick runs one full health pass.
func (w *Watchdog) Tick() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.TickDuration, watchdogComponent)
	return w.CheckAll()
}

// CheckAll runs every probe in a fixed order, writes an alert file per
// finding, and refreshes the watchdog's own heartbeat row. The
// heartbeat moves even on an alerting pass: a watchdog that finds
// problems is a live watchdog.
func (w *Watchdog) CheckAll() error {
	alerts := w.CheckDisk()
	alerts = append(alerts, w.CheckHeartbeats()...)
	alerts = append(alerts, w.CheckDatabases()...)

	for _, alert := range alerts {
		if err := w.writeAlert(alert); err != nil {
			return err
		}
	}

	return w.stores.UpsertHeartbeat(watchdogComponent, types.FormatTime(w.clock.Now()), "OK")
}

// CheckDisk compares filesystem usage under the base path against the
// configured thresholds. At most one alert comes back: critical wins
// over warning.
func (w *Watchdog) CheckDisk() []types.Alert {
	usage := w.diskUsage(w.paths.Base)
	metrics.DiskUsagePercent.Set(usage)

	warning := w.threshold(config.KeyDiskWarningThreshold)
	critical := w.threshold(config.KeyDiskCriticalThreshold)

	switch {
	case usage >= critical:
		return []types.Alert{{
			Level:   types.SeverityCritical,
			Code:    CodeDiskCritical,
			Message: fmt.Sprintf("Disk usage at %.1f%% (critical threshold: %.1f%%)", usage, critical),
		}}
	case usage >= warning:
		return []types.Alert{{
			Level:   types.SeverityWarning,
			Code:    CodeDiskWarning,
			Message: fmt.Sprintf("Disk usage at %.1f%% (warning threshold: %.1f%%)", usage, warning),
		}}
	}
	return nil
}

// CheckHeartbeats flags the task processor when its touch file has
// gone stale. A missing file is not an alert; the processor may simply
// never have run on this tree yet.
func (w *Watchdog) CheckHeartbeats() []types.Alert {
	stale := w.threshold(config.KeyHeartbeatStaleMinutes)

	info, err := os.Stat(w.paths.HeartbeatFile(taskProcessorComponent))
	if err != nil {
		return nil
	}

	age := w.clock.Now().Sub(info.ModTime()).Minutes()
	if age > stale {
		return []types.Alert{{
			Level:   types.SeverityWarning,
			Code:    CodeHeartbeatStaleTaskProcessor,
			Message: fmt.Sprintf("Task processor heartbeat is %.1f minutes old", age),
		}}
	}
	return nil
}

// CheckDatabases runs the integrity predicate over all five stores.
func (w *Watchdog) CheckDatabases() []types.Alert {
	var alerts []types.Alert
	for _, res := range w.stores.IntegrityCheckAll() {
		if res.OK {
			continue
		}
		alerts = append(alerts, types.Alert{
			Level:   types.SeverityCritical,
			Code:    dbIntegrityPrefix + strings.ToUpper(res.Name),
			Message: fmt.Sprintf("Database integrity check failed: %s.db", res.Name),
		})
	}
	return alerts
}

// writeAlert drops one alert file into system/alerts for the
// escalation engine and records the finding in the audit trail.
func (w *Watchdog) writeAlert(alert types.Alert) error {
	now := w.clock.Now()
	alert.CreatedAt = types.FormatTime(now)

	name := fmt.Sprintf("%s_%s.json", alert.Code, types.CompactTimestamp(now))
	data, err := json.MarshalIndent(alert, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(w.paths.SystemAlertsDir, name), data, 0o644); err != nil {
		return fmt.Errorf("write alert %s: %w", name, err)
	}

	metrics.AlertsCreated.WithLabelValues(string(alert.Level)).Inc()
	log.Logger.Warn().
		Str("code", alert.Code).
		Str("level", string(alert.Level)).
		Msg(alert.Message)
	return w.auditor.Log(types.RoleSystem, audit.ActionAlertCreated, alert.Code, alert.Message)
}

// threshold reads a numeric tunable, falling back to the shipped
// default when the stored value does not parse. A typo in the config
// table must not take the watchdog down.
func (w *Watchdog) threshold(key string) float64 {
	raw := w.stores.ConfigValue(key, config.Defaults[key])
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	v, _ := strconv.ParseFloat(config.Defaults[key], 64)
	return v
}

// diskUsagePercent reports used space as a percentage of the
// filesystem holding path. Unreadable filesystems report zero rather
// than failing the probe.
func diskUsagePercent(path string) float64 {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0
	}
	total := float64(st.Blocks) * float64(st.Frsize)
	if total <= 0 {
		return 0
	}
	free := float64(st.Bavail) * float64(st.Frsize)
	return (total - free) / total * 100
}
