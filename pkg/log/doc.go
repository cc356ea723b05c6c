/*
Package log provides structured logging for the institute control plane
using zerolog.

The log package wraps the zerolog library to provide JSON-structured
logging with component-specific loggers, configurable log levels, and
helper functions for common logging patterns. All logs include timestamps
and support filtering by severity level. The audit trail is NOT this
package: privileged actions go to the audit store (pkg/audit); this
package is operator-facing diagnostics only.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │            Global Logger                   │           │
	│  │  - Zerolog instance                        │           │
	│  │  - Initialized via log.Init()              │           │
	│  │  - Thread-safe for concurrent use          │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │           Configuration                    │           │
	│  │  - Level: debug/info/warn/error            │           │
	│  │  - Format: JSON or console (human)         │           │
	│  │  - Output: stderr, logs/<name>.log tee     │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │         Context Loggers                    │           │
	│  │  - WithComponent("watchdog")               │           │
	│  │  - WithRole("director")                    │           │
	│  │  - WithRunID("9f2c...")                    │           │
	│  └────────────────────────────────────────────┘           │
	└───────────────────────────────────────────────────────────┘

# Usage

Initializing (daemons tee into the logs directory):

	out, err := log.FileOutput(paths.LogsDir, "watchdog")
	if err != nil {
		out = os.Stderr
	}
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     out,
	})

Simple logging:

	log.Info("watchdog starting")
	log.Errorf("tick failed", err)

Structured logging:

	log.Logger.Info().
		Str("code", "DISK_CRITICAL").
		Float64("used_pct", 93.2).
		Msg("alert emitted")

Component loggers:

	wdLog := log.WithComponent("watchdog").With().
		Str("run_id", runID).Logger()
	wdLog.Info().Int("alerts", n).Msg("tick complete")

# Integration Points

  - pkg/watchdog, pkg/escalation, pkg/processor: per-tick diagnostics
  - cmd/institute: CLI-level warnings and fatal setup errors
  - cmd/institute-init uses the standard library log instead; it is a
    one-shot maintenance tool with terminal output only

# Best Practices

Do:
  - Info level in production; Debug only while developing
  - Typed fields (.Str, .Int, .Err) for anything queryable
  - One component logger per daemon, tagged with the run id

Don't:
  - Log secrets or inbox message bodies
  - Treat the log stream as the audit trail (that is pkg/audit)
  - Log per-row inside tight store scans

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - pkg/audit for the append-only privileged-action record
*/
package log
