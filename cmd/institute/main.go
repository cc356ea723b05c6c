package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cdw/institute/pkg/access"
	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/state"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// errSilent marks failures whose message the command already printed.
// main still exits non-zero but adds no second Error line.
var errSilent = errors.New("command failed")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "institute",
	Short: "Institute - Research environment control plane",
	Long: `Institute is the control plane of a two-role research environment.

Researchers queue tasks and read their inbox. The director watches the
escalation ladder, drives lockdown and recovery, tunes the runtime
configuration and reads the audit trail. Three daemons (watchdog,
escalator, processor) keep the machine moving between invocations.
Every state change lands in the append-only audit log.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Institute version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("role", "", "User role (researcher or director)")
	rootCmd.PersistentFlags().String("base-path", "", "Override the institute base path")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML settings file")

	// Researcher commands
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(inboxCmd)

	// Director commands
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(escalationCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(recoveryCmd)
	rootCmd.AddCommand(lockdownCmd)
	rootCmd.AddCommand(auditCmd)

	// Daemons
	rootCmd.AddCommand(watchdogCmd)
	rootCmd.AddCommand(escalatorCmd)
	rootCmd.AddCommand(processorCmd)
}

// app bundles what one CLI invocation needs: the caller's role, the
// resolved path layout, the open stores and the gate helpers over them.
type app struct {
	role    types.Role
	paths   config.Paths
	stores  *storage.Stores
	clock   types.Clock
	state   *state.Manager
	auditor *audit.Logger
	guard   *access.Guard
}

// openApp resolves flags and settings, validates the role and opens the
// stores. Callers must Close.
func openApp(cmd *cobra.Command) (*app, error) {
	roleStr, _ := cmd.Flags().GetString("role")
	if roleStr == "" {
		return nil, fmt.Errorf("--role is required")
	}
	role, err := types.ParseRole(roleStr)
	if err != nil {
		return nil, err
	}

	settings, err := resolveSettings(cmd)
	if err != nil {
		return nil, err
	}
	paths := config.NewPaths(settings.BasePath)

	stores, err := storage.Open(paths)
	if err != nil {
		return nil, err
	}

	clock := types.SystemClock{}
	return &app{
		role:    role,
		paths:   paths,
		stores:  stores,
		clock:   clock,
		state:   state.New(stores.System, clock),
		auditor: audit.New(stores.Audit, clock),
		guard:   access.NewGuard(stores, clock),
	}, nil
}

// resolveSettings layers the optional settings file over the defaults
// and the command-line flags over both.
func resolveSettings(cmd *cobra.Command) (config.Settings, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	settings, err := config.LoadSettings(cfgPath, false)
	if err != nil {
		return config.Settings{}, err
	}
	if basePath, _ := cmd.Flags().GetString("base-path"); basePath != "" {
		settings.BasePath = basePath
	}
	return settings, nil
}

func (a *app) Close() {
	a.stores.Close()
}

// requireRole enforces a per-command role gate. A mismatch has already
// been audited by the guard when the error comes back.
func (a *app) requireRole(required types.Role) error {
	return a.guard.RequireRole(a.role, required)
}

// researcherGate is the gate in front of every researcher command: the
// role must match and the system must not be in lockdown.
func (a *app) researcherGate() error {
	if err := a.guard.RequireRole(a.role, types.RoleResearcher); err != nil {
		return err
	}
	return a.guard.CheckResearcherAccess(a.role)
}

// clip truncates a value to fit a fixed-width table column.
func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
