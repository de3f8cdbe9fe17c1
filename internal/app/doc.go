// Package app bootstraps bridgectl: it loads configuration, initializes
// logging, and builds the services every command works with.
//
// # Bootstrap
//
// NewApplication runs the start-up sequence:
//
//  1. Logging is configured from the --log-level flag, or info
//  2. config.yaml is loaded from the config directory on top of the defaults
//  3. Command line overrides (--vsctl, --manifests, --no-history) are applied
//  4. Logging is reconfigured if config.yaml chose another level
//  5. Services are initialized
//
// # Services
//
// Services bundles the ovs-vsctl Tool, the provider Registry with the
// ovs_bridge reconciler registered, the manifest Store and Parser, and the
// optional history Journal. One-shot commands (apply, plan, check, import)
// use them directly.
//
// # Watch Mode
//
// Application.Run builds a reconciler.Manager with one ManifestReconciler per
// registered type and keeps the host converged until SIGINT or SIGTERM. When
// started by systemd with Type=notify, READY=1 is sent once the manager is
// running, STOPPING=1 on shutdown, and WATCHDOG=1 at half the WatchdogSec
// interval.
package app
