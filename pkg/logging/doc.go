// Package logging provides a structured logging system for bridgectl with unified
// log handling and level filtering.
//
// The package is built on Go's standard slog package. Every entry carries a
// subsystem identifier so output can be filtered per component.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Bootstrap", "Starting bridgectl")
//	logging.Debug("Executor", "Running %s %v", path, args)
//	logging.Warn("ReconcileManager", "Requeuing %s", key)
//	logging.Error("History", err, "Failed to record run")
//
// # Subsystems
//
//   - Bootstrap: CLI startup and configuration loading
//   - ConfigLoader: configuration file handling
//   - Executor: external command execution
//   - BridgeReconciler: ovs_bridge convergence
//   - Registry: provider registration and dispatch
//   - ReconcileManager / FilesystemDetector: watch mode
//   - Manifest: manifest discovery and decoding
//   - History: convergence journal
//
// # Action logging
//
// Mutating host changes are additionally reported through Action, which
// writes an INFO entry prefixed with [ACTION]:
//
//	logging.Action(logging.ActionEvent{
//	    ResourceType: "ovs_bridge",
//	    Resource:     "br0",
//	    Action:       "create",
//	    Outcome:      "success",
//	})
//
// Before InitForCLI is called, only warnings and errors are written, directly
// to stderr. This keeps library use of the packages quiet by default.
//
// # Thread Safety
//
// All functions are safe for concurrent use.
package logging
