// Package watchdog is the detection half of the institute's health
// loop. Each tick it probes disk capacity, daemon heartbeats, and
// store integrity, and writes one JSON alert file per finding into
// system/alerts/. It deliberately stops there:
//
//	watchdog ──(alert files)──▶ escalation engine ──▶ ladder / lockdown
//
// Keeping detection and response in separate daemons means a wedged
// escalation engine never blinds the watchdog, and alert files queue
// up on disk until the engine returns.
//
// # Probes
//
//	disk        usage of the filesystem under the base path against
//	            disk_warning_threshold / disk_critical_threshold;
//	            critical shadows warning
//	heartbeats  mtime age of system/heartbeat/task_processor against
//	            heartbeat_stale_minutes; a missing file is silent
//	databases   PRAGMA integrity_check over all five stores
//
// Alert files are named <CODE>_<YYYYMMDD_HHMMSS>.json and carry the
// severity, code, message, and creation time. Every alert is also
// written to the audit trail as alert_created.
//
// The watchdog maintains its own row in the system store's heartbeats
// table, refreshed at the end of every pass.
//
// # Usage
//
//	w := watchdog.New(stores, types.SystemClock{})
//	err := w.Run(ctx, time.Minute)
//
// # Integration Points
//
//   - pkg/escalation: consumes the alert files this package writes
//   - pkg/storage: config thresholds, integrity checks, heartbeat row
//   - pkg/audit: alert_created, watchdog_started/stopped/error
//   - pkg/metrics: disk gauge, alert counters, tick timings
//
// # See Also
//
//   - pkg/processor for the heartbeat file this package ages
package watchdog
