package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/escalation"
	"github.com/cdw/institute/pkg/log"
	"github.com/cdw/institute/pkg/metrics"
	"github.com/cdw/institute/pkg/processor"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
	"github.com/cdw/institute/pkg/watchdog"
)

// Daemon commands. Each one runs a tick loop under signal-aware
// cancellation; the tick in flight always finishes before exit.

var watchdogCmd = &cobra.Command{
	Use:   "watchdog",
	Short: "Run the watchdog daemon",
	Long: `Run the watchdog: disk, heartbeat and database integrity probes on a
fixed interval. Findings become alert files for the escalation engine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd, "watchdog",
			func(ctx context.Context, stores *storage.Stores, interval time.Duration) error {
				return watchdog.New(stores, types.SystemClock{}).Run(ctx, interval)
			})
	},
}

var escalatorCmd = &cobra.Command{
	Use:   "escalator",
	Short: "Run the escalation engine daemon",
	Long: `Run the escalation engine: ingest watchdog alerts into escalations and
walk unacknowledged escalations up the ladder. An L4 escalation past its
threshold triggers automatic lockdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd, "escalator",
			func(ctx context.Context, stores *storage.Stores, interval time.Duration) error {
				return escalation.NewEngine(stores, types.SystemClock{}).Run(ctx, interval)
			})
	},
}

var processorCmd = &cobra.Command{
	Use:   "processor",
	Short: "Run the task processor daemon",
	Long: `Run the task processor: drain the pending queue under the exclusive
lock, honoring the mode gate. Tasks are accepted as-is unless --exec
names a command to run per task. With --once a single pass runs and
the process exits, which is the shape cron wants.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if once, _ := cmd.Flags().GetBool("once"); once {
			return processOnce(cmd)
		}
		return runDaemon(cmd, "task_processor",
			func(ctx context.Context, stores *storage.Stores, interval time.Duration) error {
				return newProcessor(cmd, stores).Run(ctx, interval)
			})
	},
}

// newProcessor builds the processor, swapping in the exec runner when
// the operator asked for one.
func newProcessor(cmd *cobra.Command, stores *storage.Stores) *processor.Processor {
	p := processor.New(stores, types.SystemClock{})
	if execCmd, _ := cmd.Flags().GetString("exec"); execCmd != "" {
		p.Runner = processor.NewCommandRunner(strings.Fields(execCmd))
	}
	return p
}

// runDaemon wires the shared daemon scaffolding: settings, logging, the
// stores, the optional metrics listener and the interrupt handler. The
// run function owns the loop.
func runDaemon(cmd *cobra.Command, component string,
	run func(ctx context.Context, stores *storage.Stores, interval time.Duration) error) error {

	settings, paths, err := daemonSettings(cmd)
	if err != nil {
		return err
	}
	if err := initDaemonLog(settings, paths, component); err != nil {
		return err
	}

	stores, err := storage.Open(paths)
	if err != nil {
		return err
	}
	defer stores.Close()

	if settings.MetricsAddr != "" {
		collector := metrics.NewCollector(stores, 0)
		collector.Start()
		defer collector.Stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		server := &http.Server{Addr: settings.MetricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Logger.Error().Err(err).Str("addr", settings.MetricsAddr).Msg("Metrics listener failed")
			}
		}()
		defer server.Close()
		log.Logger.Info().Str("addr", settings.MetricsAddr).Msg("Metrics listener started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	return run(ctx, stores, settings.Interval)
}

// processOnce is the cron shape of the processor: one pass over the
// pending queue, report the count, exit.
func processOnce(cmd *cobra.Command) error {
	settings, paths, err := daemonSettings(cmd)
	if err != nil {
		return err
	}
	if err := initDaemonLog(settings, paths, "task_processor"); err != nil {
		return err
	}

	stores, err := storage.Open(paths)
	if err != nil {
		return err
	}
	defer stores.Close()

	count, err := newProcessor(cmd, stores).Tick()
	if err != nil {
		return err
	}
	if count > 0 {
		fmt.Printf("Processed %d task(s)\n", count)
	}
	return nil
}

// daemonSettings resolves the daemon configuration: defaults, then the
// settings file, then command-line flags.
func daemonSettings(cmd *cobra.Command) (config.Settings, config.Paths, error) {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return config.Settings{}, config.Paths{}, err
	}
	if cmd.Flags().Changed("interval") {
		settings.Interval, _ = cmd.Flags().GetDuration("interval")
	}
	if cmd.Flags().Changed("metrics-addr") {
		settings.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	}
	return settings, config.NewPaths(settings.BasePath), nil
}

// initDaemonLog points the global logger at the component log file and
// tags every line of this run with a fresh run id.
func initDaemonLog(settings config.Settings, paths config.Paths, component string) error {
	out, err := log.FileOutput(paths.LogsDir, component)
	if err != nil {
		return err
	}
	log.Init(log.Config{
		Level:      log.Level(settings.LogLevel),
		JSONOutput: settings.JSONLogs,
		Output:     out,
	})
	log.Logger = log.WithRunID(uuid.NewString())
	log.Logger = log.WithComponent(component)
	return nil
}

func init() {
	watchdogCmd.Flags().Duration("interval", 60*time.Second, "Interval between ticks")
	watchdogCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address")

	escalatorCmd.Flags().Duration("interval", 60*time.Second, "Interval between ticks")
	escalatorCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address")

	processorCmd.Flags().Duration("interval", 60*time.Second, "Interval between ticks")
	processorCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address")
	processorCmd.Flags().Bool("once", false, "Run one processing pass and exit")
	processorCmd.Flags().String("exec", "", "Execute each task with this command (task JSON on stdin)")
}
