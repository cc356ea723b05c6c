package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cdw/institute/pkg/types"
)

// Runner executes one task. The control plane ships a trivial runner;
// deployments swap in their own before starting the processor.
type Runner interface {
	Execute(task types.TaskFile) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(types.TaskFile) error

// Execute calls f.
func (f RunnerFunc) Execute(task types.TaskFile) error { return f(task) }

// successRunner accepts every task. Real task execution lives outside
// the control plane; this keeps the queue machinery exercisable.
type successRunner struct{}

func (successRunner) Execute(types.TaskFile) error { return nil }

// CommandRunner executes tasks by running a command with the task id
// and name appended as arguments and the task document as JSON on
// stdin. A non-zero exit or a timeout fails the task.
type CommandRunner struct {
	Command []string

	// Timeout bounds one execution (default: 10 minutes).
	Timeout time.Duration
}

// NewCommandRunner builds a CommandRunner with the default timeout.
func NewCommandRunner(command []string) *CommandRunner {
	return &CommandRunner{Command: command, Timeout: 10 * time.Minute}
}

// Execute runs the configured command against task.
func (r *CommandRunner) Execute(task types.TaskFile) error {
	if len(r.Command) == 0 {
		return fmt.Errorf("no command configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	doc, err := json.Marshal(task)
	if err != nil {
		return err
	}

	args := append([]string(nil), r.Command[1:]...)
	args = append(args, strconv.FormatInt(task.ID, 10), task.Name)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	cmd.Stdin = bytes.NewReader(doc)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
