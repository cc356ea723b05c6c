/*
Package metrics exposes Prometheus metrics for the institute daemons.

All metrics carry the institute_ prefix. Counters are incremented at
the call sites that own the event (the processor counts its tasks, the
watchdog counts its alerts); gauges that mirror store state are set by
the Collector, which polls the stores on its own ticker.

# Exported Metrics

	institute_mode{mode}                        current mode as a 0/1 gauge set
	institute_tasks_total{status}               task rows by status
	institute_tasks_processed_total             tasks picked up by the processor
	institute_tasks_failed_total                tasks finished in failure
	institute_task_processing_blocked_total     runs skipped by mode gating
	institute_escalations_total{state}          escalation rows by state
	institute_active_escalations{level}         unresolved escalations by level
	institute_escalations_promoted_total        ladder promotions
	institute_alerts_created_total{level}       watchdog alert files by severity
	institute_disk_usage_percent                base path filesystem usage
	institute_lockdowns_triggered_total{source} lockdowns by auto/manual
	institute_tick_duration_seconds{component}  daemon tick latency
	institute_tick_errors_total{component}      daemon ticks that errored

# Usage

Each daemon command serves Handler on its --metrics-addr and starts a
Collector alongside its own loop:

	collector := metrics.NewCollector(stores, 15*time.Second)
	collector.Start()
	defer collector.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

Timing a unit of work:

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.TickDuration, "watchdog")
*/
package metrics
