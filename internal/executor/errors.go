package executor

import (
	"errors"
	"fmt"
	"strings"
)

// SpawnFailure is the exit code recorded when a process could not be started
// or did not exit on its own (killed by a signal or a cancelled context).
const SpawnFailure = -1

// ExecutionFailure describes an external command that could not run or
// exited with a non-zero code.
type ExecutionFailure struct {
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *ExecutionFailure) Error() string {
	cmdline := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))

	if e.ExitCode == SpawnFailure {
		if e.Err != nil {
			return fmt.Sprintf("failed to run %s: %v", cmdline, e.Err)
		}
		return fmt.Sprintf("failed to run %s", cmdline)
	}

	msg := fmt.Sprintf("%s exited with code %d", cmdline, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *ExecutionFailure) Unwrap() error {
	return e.Err
}

// Exited reports whether the process ran to completion and exited non-zero.
// It is false for spawn failures and killed processes.
func (e *ExecutionFailure) Exited() bool {
	return e.ExitCode > 0
}

// IsExecutionFailure checks if an error is or wraps an *ExecutionFailure.
func IsExecutionFailure(err error) bool {
	var failure *ExecutionFailure
	return errors.As(err, &failure)
}

// AsExecutionFailure returns the *ExecutionFailure wrapped by err, if any.
func AsExecutionFailure(err error) (*ExecutionFailure, bool) {
	var failure *ExecutionFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

// ClassifyExists converts the outcome of a boolean query command into a
// boolean. Existence checks report "no" through a non-zero exit code, so an
// exited failure is data and yields false. Spawn failures, killed processes
// and any other error are returned unchanged.
func ClassifyExists(_ Result, err error) (bool, error) {
	if err == nil {
		return true, nil
	}

	if failure, ok := AsExecutionFailure(err); ok && failure.Exited() {
		return false, nil
	}

	return false, err
}
