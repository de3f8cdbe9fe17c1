package executor

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// lookPath is a variable to allow mocking in tests
var lookPath = exec.LookPath

// Tool binds a Runner to one external binary.
type Tool struct {
	// Path is the binary to invoke.
	Path string

	// ExtraArgs are prepended to every invocation (global tool options).
	ExtraArgs []string

	// Timeout bounds each invocation when positive.
	Timeout time.Duration

	runner Runner
}

// ToolOption configures a Tool.
type ToolOption func(*Tool)

// WithExtraArgs sets global options passed before every subcommand.
func WithExtraArgs(args ...string) ToolOption {
	return func(t *Tool) {
		t.ExtraArgs = append([]string(nil), args...)
	}
}

// WithTimeout bounds every invocation by d. Zero disables the bound.
func WithTimeout(d time.Duration) ToolOption {
	return func(t *Tool) {
		t.Timeout = d
	}
}

// NewTool creates a Tool for the binary at path. A nil runner defaults to an ExecRunner.
func NewTool(runner Runner, path string, opts ...ToolOption) *Tool {
	if runner == nil {
		runner = NewExecRunner()
	}
	t := &Tool{Path: path, runner: runner}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run invokes the tool with the configured global options followed by args.
func (t *Tool) Run(ctx context.Context, args ...string) (Result, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	full := make([]string, 0, len(t.ExtraArgs)+len(args))
	full = append(full, t.ExtraArgs...)
	full = append(full, args...)

	return t.runner.Run(ctx, t.Path, full...)
}

// Query runs a boolean query subcommand; a non-zero exit yields false.
func (t *Tool) Query(ctx context.Context, args ...string) (bool, error) {
	return ClassifyExists(t.Run(ctx, args...))
}

// Available checks that the tool binary can be found.
func (t *Tool) Available() error {
	if _, err := lookPath(t.Path); err != nil {
		return fmt.Errorf("%s not found: %w", t.Path, err)
	}
	return nil
}
