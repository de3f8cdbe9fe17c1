package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"bridgectl/pkg/logging"
)

const executorSubsystem = "Executor"

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// ExecRunner implements Runner using os/exec.
type ExecRunner struct{}

// NewExecRunner creates a new process-backed runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run spawns command with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, command string, args ...string) (Result, error) {
	logging.Debug(executorSubsystem, "Running: %s %s", command, strings.Join(args, " "))

	cmd := execCommandContext(ctx, command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if runErr == nil {
		return result, nil
	}

	failure := &ExecutionFailure{
		Command:  command,
		Args:     append([]string(nil), args...),
		ExitCode: SpawnFailure,
		Stderr:   result.Stderr,
		Err:      runErr,
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		failure.ExitCode = exitErr.ExitCode()
		failure.Err = nil
	}

	// A cancelled context kills the process; surface the context error instead of the signal.
	if ctxErr := ctx.Err(); ctxErr != nil {
		failure.ExitCode = SpawnFailure
		failure.Err = fmt.Errorf("command aborted: %w", ctxErr)
	}

	result.ExitCode = failure.ExitCode
	logging.Debug(executorSubsystem, "Command failed: %v", failure)
	return result, failure
}
