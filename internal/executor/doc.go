// Package executor runs external management tools for bridgectl.
//
// Resource providers never spawn processes directly. They go through a
// Runner, which runs one command synchronously, captures stdout and stderr
// separately and classifies failures.
//
// # Core Components
//
// Runner: Interface that abstracts process execution
//   - Run: Execute a command with arguments and return its Result
//
// ExecRunner: Runner implementation backed by os/exec
//   - Spawns exactly one OS process per call
//   - Preserves stdout byte-for-byte (line boundaries matter to parsers)
//   - Never retries; retry policy belongs to the reconcilers
//
// Tool: A Runner bound to one binary path
//   - Path: explicit binary location, e.g. /usr/bin/ovs-vsctl
//   - ExtraArgs: global options placed before every subcommand
//   - Timeout: optional per-call deadline layered on the caller's context
//
// # Failure Classification
//
// Every failed call returns an *ExecutionFailure:
//   - ExitCode > 0: the process ran and exited non-zero
//   - ExitCode == SpawnFailure: the process could not be started
//     (missing binary, permission denied) or was killed
//
// Some calls are boolean queries where a non-zero exit means "no". Those go
// through ClassifyExists, which turns an exit failure into false and keeps
// every other error:
//
//	exists, err := executor.ClassifyExists(tool.Run(ctx, "br-exists", "br0"))
//
// # Cancellation
//
// Runners honor context cancellation. With context.Background a hung process
// blocks the caller indefinitely; callers that need a deadline either set
// Tool.Timeout or pass a context with a deadline.
package executor
