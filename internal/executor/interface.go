package executor

import "context"

// Runner defines the interface for running an external command.
type Runner interface {
	// Run executes command with args and blocks until the process exits.
	// A non-nil error is always an *ExecutionFailure; the returned Result is
	// populated with whatever output was captured in both cases.
	Run(ctx context.Context, command string, args ...string) (Result, error)
}

// Result holds the captured output of one command invocation.
type Result struct {
	ExitCode int    // Process exit code (0 on success)
	Stdout   string // Standard output, unmodified
	Stderr   string // Standard error, unmodified
}

// RunnerFunc adapts an ordinary function to the Runner interface.
type RunnerFunc func(ctx context.Context, command string, args ...string) (Result, error)

// Run calls f(ctx, command, args...).
func (f RunnerFunc) Run(ctx context.Context, command string, args ...string) (Result, error) {
	return f(ctx, command, args...)
}
