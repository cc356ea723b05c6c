package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/escalation"
	"github.com/cdw/institute/pkg/recovery"
	"github.com/cdw/institute/pkg/types"
)

// Status command

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Long: `Show the operational mode, escalation counts and, while the system is
in lockdown, whether recovery could proceed.`,
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
		st, err := gate.Status()
		if err != nil {
			return err
		}

		fmt.Printf("System Mode: %s\n", st.Mode.Mode)
		fmt.Printf("Last Updated: %s\n", st.Mode.UpdatedAt)
		if st.Mode.Reason != "" {
			fmt.Printf("Reason: %s\n", st.Mode.Reason)
		}
		fmt.Println()

		fmt.Println("Escalations:")
		states := make([]string, 0, len(st.Escalations))
		for s := range st.Escalations {
			states = append(states, string(s))
		}
		sort.Strings(states)
		for _, s := range states {
			fmt.Printf("  %s: %d\n", s, st.Escalations[types.EscalationState(s)])
		}
		fmt.Println()

		if st.Mode.Mode == types.ModeLockdown {
			fmt.Println("Recovery Status:")
			if st.CanRecover {
				fmt.Println("  ✓ System can be recovered")
			} else {
				fmt.Println("  ✗ Recovery blocked by:")
				for _, issue := range st.Issues {
					fmt.Printf("    - %s\n", issue)
				}
			}
		}
		return nil
	},
}

// Escalation commands

var escalationCmd = &cobra.Command{
	Use:   "escalation",
	Short: "Manage escalations",
}

var escalationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List escalations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		engine := escalation.NewEngine(a.stores, a.clock)
		escs, err := engine.List()
		if err != nil {
			return err
		}
		if len(escs) == 0 {
			fmt.Println("No escalations.")
			return nil
		}

		fmt.Printf("%-6s %-30s %-6s %-15s %s\n", "ID", "Code", "Level", "State", "Created")
		fmt.Println(strings.Repeat("-", 100))
		for _, e := range escs {
			fmt.Printf("%-6d %-30s %-6s %-15s %s\n",
				e.ID, e.Code, e.Level, e.State, clip(e.CreatedAt, 19))
		}
		return nil
	},
}

var escalationAckCmd = &cobra.Command{
	Use:   "ack ESCALATION_ID",
	Short: "Acknowledge an escalation",
	Long: `Acknowledge an escalation. Acknowledged escalations stop climbing the
ladder and count as handled when recovery conditions are verified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid escalation ID: %q", args[0])
		}

		engine := escalation.NewEngine(a.stores, a.clock)
		err = engine.Acknowledge(id)
		var notFound *types.NotFoundError
		if errors.As(err, &notFound) {
			fmt.Printf("Escalation not found: %d\n", id)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Escalation %d acknowledged.\n", id)
		return nil
	},
}

var escalationResolveCmd = &cobra.Command{
	Use:   "resolve ESCALATION_ID",
	Short: "Resolve an escalation with a note",
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

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid escalation ID: %q", args[0])
		}
		note, _ := cmd.Flags().GetString("note")

		engine := escalation.NewEngine(a.stores, a.clock)
		err = engine.Resolve(id, note)
		var notFound *types.NotFoundError
		if errors.As(err, &notFound) {
			fmt.Printf("Escalation not found: %d\n", id)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Escalation %d resolved.\n", id)
		return nil
	},
}

// Config commands

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage runtime configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show runtime configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		entries, err := a.stores.ListConfig()
		if err != nil {
			return err
		}

		fmt.Printf("%-35s %-20s %s\n", "Key", "Value", "Updated")
		fmt.Println(strings.Repeat("-", 80))
		for _, e := range entries {
			fmt.Printf("%-35s %-20s %s\n", e.Key, e.Value, clip(e.UpdatedAt, 19))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a runtime configuration value",
	Long: `Set a runtime configuration value. Daemons read these at point of use,
so a change applies on their next tick without a restart.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		key, value := args[0], args[1]
		now := types.FormatTime(a.clock.Now())
		if err := a.stores.SetConfigValue(key, value, now); err != nil {
			return err
		}
		if err := a.auditor.Log(a.role, audit.ActionConfigUpdated, key, value); err != nil {
			return err
		}

		fmt.Printf("Configuration updated: %s = %s\n", key, value)
		return nil
	},
}

// Audit commands

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail [N]",
	Short: "Show recent audit log entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		limit := 50
		if len(args) == 1 {
			v, convErr := strconv.Atoi(args[0])
			if convErr != nil || v < 1 {
				return fmt.Errorf("invalid entry count: %q", args[0])
			}
			limit = v
		}

		entries, err := a.auditor.Recent(limit)
		if err != nil {
			return err
		}

		fmt.Printf("%-20s %-12s %-25s %-20s %s\n", "Timestamp", "Role", "Action", "Target", "Details")
		fmt.Println(strings.Repeat("-", 120))
		for _, e := range entries {
			fmt.Printf("%-20s %-12s %-25s %-20s %s\n",
				clip(e.Timestamp, 19), e.Role, e.Action,
				clip(types.StrVal(e.Target), 20), clip(types.StrVal(e.Details), 40))
		}
		return nil
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit trail checksums",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireRole(types.RoleDirector); err != nil {
			return err
		}

		ok, err := a.auditor.VerifyIntegrity()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("✗ Audit log integrity check failed.")
			return errSilent
		}
		fmt.Println("✓ Audit log integrity verified.")
		return nil
	},
}

func init() {
	escalationCmd.AddCommand(escalationListCmd)
	escalationCmd.AddCommand(escalationAckCmd)
	escalationCmd.AddCommand(escalationResolveCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)

	auditCmd.AddCommand(auditTailCmd)
	auditCmd.AddCommand(auditVerifyCmd)

	escalationResolveCmd.Flags().String("note", "", "Resolution note")
	escalationResolveCmd.MarkFlagRequired("note")
}
