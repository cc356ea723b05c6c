package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cdw/institute/pkg/recovery"
	"github.com/cdw/institute/pkg/report"
	"github.com/cdw/institute/pkg/types"
)

// Recovery commands

var recoveryCmd = &cobra.Command{
	Use:   "recovery",
	Short: "Verify and confirm recovery from lockdown",
}

var recoveryVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify recovery conditions",
	Long: `Verify every condition for leaving lockdown: the system must be in
LOCKDOWN mode, all escalations acknowledged or resolved, every database
intact and the audit trail unmodified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		gate := recovery.NewGate(a.stores, a.clock)
		issues, err := gate.VerifyRecoveryConditions()
		if err != nil {
			return err
		}

		if len(issues) == 0 {
			fmt.Println("✓ All recovery conditions met.")
			fmt.Println("Run 'institute --role=director recovery confirm' to complete recovery.")
			return nil
		}

		fmt.Println("✗ Recovery blocked by:")
		for _, issue := range issues {
			fmt.Printf("  - %s\n", issue)
		}
		return nil
	},
}

var recoveryConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm recovery and return to NORMAL",
	Long: `Confirm recovery. The conditions are re-verified at this moment; when
clean, the system walks LOCKDOWN -> RECOVERY -> NORMAL and both steps
land in the mode history and the audit trail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		gate := recovery.NewGate(a.stores, a.clock)
		if err := gate.ConfirmRecovery(); err != nil {
			var invariant *types.InvariantError
			if errors.As(err, &invariant) {
				fmt.Printf("✗ Recovery failed: %v\n", err)
				return errSilent
			}
			return err
		}

		fmt.Println("✓ Recovery completed. System returned to NORMAL mode.")
		return nil
	},
}

// Lockdown commands

var lockdownCmd = &cobra.Command{
	Use:   "lockdown",
	Short: "Trigger system lockdown",
}

var lockdownTriggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Put the system into LOCKDOWN mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		reason, _ := cmd.Flags().GetString("reason")
		gate := recovery.NewGate(a.stores, a.clock)
		if err := gate.TriggerLockdown(reason); err != nil {
			var invariant *types.InvariantError
			if errors.As(err, &invariant) {
				fmt.Printf("✗ Failed to trigger lockdown: %v\n", err)
				return errSilent
			}
			return err
		}

		fmt.Println("✓ System lockdown triggered.")
		fmt.Printf("Reason: %s\n", reason)
		return nil
	},
}

// Report commands

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and list reports",
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate TYPE",
	Short: "Generate a daily or weekly report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		gen := report.NewGenerator(a.stores, a.clock)
		var path string
		switch args[0] {
		case "daily":
			path, err = gen.GenerateDaily()
		case "weekly":
			path, err = gen.GenerateWeekly()
		default:
			return fmt.Errorf("invalid report type: %q (must be daily or weekly)", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("Report generated: %s\n", path)
		return nil
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		gen := report.NewGenerator(a.stores, a.clock)
		reports, err := gen.ListReports("")
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("No reports found.")
			return nil
		}
		if len(reports) > 20 {
			reports = reports[:20]
		}

		fmt.Printf("%-6s %-10s %-20s %s\n", "ID", "Type", "Generated", "Path")
		fmt.Println(strings.Repeat("-", 100))
		for _, r := range reports {
			fmt.Printf("%-6d %-10s %-20s %s\n", r.ID, r.Type, clip(r.GeneratedAt, 19), r.Path)
		}
		return nil
	},
}

func init() {
	recoveryCmd.AddCommand(recoveryVerifyCmd)
	recoveryCmd.AddCommand(recoveryConfirmCmd)

	lockdownCmd.AddCommand(lockdownTriggerCmd)

	reportCmd.AddCommand(reportGenerateCmd)
	reportCmd.AddCommand(reportListCmd)

	lockdownTriggerCmd.Flags().String("reason", "", "Lockdown reason")
	lockdownTriggerCmd.MarkFlagRequired("reason")
}
