package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/notify"
	"github.com/cdw/institute/pkg/queue"
	"github.com/cdw/institute/pkg/types"
)

// Task commands

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage research tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a research task",
	Long: `Create a research task. The task starts in the pending queue and is
picked up by the task processor on its next pass.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.researcherGate(); err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")

		q := queue.New(a.stores.Research, a.paths, a.clock)
		id, err := q.CreateTask(name, description)
		if err != nil {
			return err
		}
		if err := a.auditor.Log(a.role, audit.ActionTaskCreated,
			fmt.Sprintf("task_%d", id), name); err != nil {
			return err
		}

		fmt.Printf("Task created: %d\n", id)
		fmt.Printf("Name: %s\n", name)
		if description != "" {
			fmt.Printf("Description: %s\n", description)
		}
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List research tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.researcherGate(); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		if status != "" && !types.TaskStatus(status).Valid() {
			return fmt.Errorf("invalid status: %q (must be pending, processing, completed or failed)", status)
		}

		q := queue.New(a.stores.Research, a.paths, a.clock)
		tasks, err := q.ListTasks(types.TaskStatus(status))
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		fmt.Printf("%-6s %-12s %-20s %s\n", "ID", "Status", "Created", "Name")
		fmt.Println(strings.Repeat("-", 80))
		for _, t := range tasks {
			fmt.Printf("%-6d %-12s %-20s %s\n", t.ID, t.Status, clip(t.CreatedAt, 19), t.Name)
		}
		return nil
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status TASK_ID",
	Short: "Show the status of one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.researcherGate(); err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task ID: %q", args[0])
		}

		q := queue.New(a.stores.Research, a.paths, a.clock)
		task, err := q.Task(id)
		var notFound *types.NotFoundError
		if errors.As(err, &notFound) {
			fmt.Printf("Task not found: %d\n", id)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Task ID: %d\n", task.ID)
		fmt.Printf("Name: %s\n", task.Name)
		if d := types.StrVal(task.Description); d != "" {
			fmt.Printf("Description: %s\n", d)
		}
		fmt.Printf("Status: %s\n", task.Status)
		fmt.Printf("Created: %s\n", task.CreatedAt)
		fmt.Printf("Updated: %s\n", task.UpdatedAt)
		if c := types.StrVal(task.CompletedAt); c != "" {
			fmt.Printf("Completed: %s\n", c)
		}
		if e := types.StrVal(task.ErrorMessage); e != "" {
			fmt.Printf("Error: %s\n", e)
		}
		return nil
	},
}

// Inbox commands work for both roles; each reads its own directory.
// Notifications for the director land in inbox/director, so the
// lockdown clamp only applies to the researcher side.

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Read your role's inbox",
}

var inboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inbox messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.guard.CheckResearcherAccess(a.role); err != nil {
			return err
		}

		n := notify.New(a.paths, a.clock)
		messages, err := n.Messages(a.role)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			fmt.Println("Inbox is empty.")
			return nil
		}

		fmt.Println("Inbox messages:")
		for i, name := range messages {
			fmt.Printf("%d. %s\n", i+1, name)
		}
		return nil
	},
}

var inboxReadCmd = &cobra.Command{
	Use:   "read MESSAGE_ID",
	Short: "Read one inbox message by its position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.guard.CheckResearcherAccess(a.role); err != nil {
			return err
		}

		n := notify.New(a.paths, a.clock)
		messages, err := n.Messages(a.role)
		if err != nil {
			return err
		}

		index, convErr := strconv.Atoi(args[0])
		if convErr != nil || index < 1 || index > len(messages) {
			fmt.Printf("Invalid message ID: %s\n", args[0])
			return nil
		}

		_, content, err := n.Read(a.role, index)
		if err != nil {
			return err
		}
		fmt.Println(content)
		return nil
	},
}

func init() {
	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskStatusCmd)

	inboxCmd.AddCommand(inboxListCmd)
	inboxCmd.AddCommand(inboxReadCmd)

	taskCreateCmd.Flags().String("name", "", "Task name")
	taskCreateCmd.Flags().String("description", "", "Task description")
	taskCreateCmd.MarkFlagRequired("name")

	taskListCmd.Flags().String("status", "", "Filter by status (pending, processing, completed, failed)")
}
