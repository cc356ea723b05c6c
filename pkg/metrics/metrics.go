package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Mode metrics
	ModeInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "institute_mode",
			Help: "Current operational mode (1 for the active mode, 0 otherwise)",
		},
		[]string{"mode"},
	)

	// Task metrics
	TasksTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "institute_tasks_total",
			Help: "Total number of tasks by status",
		},
		[]string{"status"},
	)

	TasksProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "institute_tasks_processed_total",
			Help: "Total number of tasks the processor has picked up",
		},
	)

	TasksFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "institute_tasks_failed_total",
			Help: "Total number of tasks that finished in failure",
		},
	)

	ProcessingBlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "institute_task_processing_blocked_total",
			Help: "Processor runs skipped because the mode forbids processing",
		},
	)

	// Escalation metrics
	EscalationsByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "institute_escalations_total",
			Help: "Total number of escalations by state",
		},
		[]string{"state"},
	)

	ActiveEscalationsByLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "institute_active_escalations",
			Help: "Unresolved escalations by ladder level",
		},
		[]string{"level"},
	)

	EscalationsPromoted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "institute_escalations_promoted_total",
			Help: "Total number of ladder promotions",
		},
	)

	// Watchdog metrics
	AlertsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "institute_alerts_created_total",
			Help: "Total number of alert files created by severity",
		},
		[]string{"level"},
	)

	DiskUsagePercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "institute_disk_usage_percent",
			Help: "Disk usage of the base path filesystem",
		},
	)

	LockdownsTriggered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "institute_lockdowns_triggered_total",
			Help: "Total number of lockdowns by trigger source",
		},
		[]string{"source"},
	)

	// Daemon loop metrics
	TickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "institute_tick_duration_seconds",
			Help:    "Duration of one daemon tick in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"component"},
	)

	TickErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "institute_tick_errors_total",
			Help: "Daemon ticks that ended with an error",
		},
		[]string{"component"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ModeInfo)
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(TasksProcessed)
	prometheus.MustRegister(TasksFailed)
	prometheus.MustRegister(ProcessingBlocked)
	prometheus.MustRegister(EscalationsByState)
	prometheus.MustRegister(ActiveEscalationsByLevel)
	prometheus.MustRegister(EscalationsPromoted)
	prometheus.MustRegister(AlertsCreated)
	prometheus.MustRegister(DiskUsagePercent)
	prometheus.MustRegister(LockdownsTriggered)
	prometheus.MustRegister(TickDuration)
	prometheus.MustRegister(TickErrors)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
