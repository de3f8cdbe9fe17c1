package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"bridgectl/internal/reconciler"
	"bridgectl/pkg/logging"
)

// sdNotify is a variable to allow mocking in tests
var sdNotify = daemon.SdNotify

// sdWatchdogEnabled is a variable to allow mocking in tests
var sdWatchdogEnabled = daemon.SdWatchdogEnabled

// runWatchMode converges every manifest, then keeps watching the manifest
// tree until ctx is cancelled or SIGINT/SIGTERM arrives.
//
// Under systemd (Type=notify) readiness is reported once the initial pass
// has been queued, and the watchdog is fed while the manager runs.
func runWatchMode(ctx context.Context, services *Services) error {
	manager, err := services.NewManager()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		logging.Error("Watch", err, "Failed to start reconcile manager")
		return err
	}

	notify(daemon.SdNotifyReady)
	logging.Info("Watch", "Watching %s (types: %v). Press Ctrl+C to stop.", services.Config.Manifests.Path, manager.GetEnabledResourceTypes())

	go feedWatchdog(ctx, manager)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logging.Info("Watch", "Received %s, shutting down", sig)
	case <-ctx.Done():
	}

	notify(daemon.SdNotifyStopping)
	cancel()
	if err := manager.Stop(); err != nil {
		return err
	}

	summary := manager.Metrics().GetSummary()
	logging.Info("Watch", "Stopped after %d passes (%d succeeded, %d partial, %d failed)",
		summary.TotalAttempts, summary.TotalSuccesses, summary.TotalPartials, summary.TotalFailures)
	return nil
}

func notify(state string) {
	sent, err := sdNotify(false, state)
	if err != nil {
		logging.Warn("Watch", "Failed to notify systemd (%s): %v", state, err)
		return
	}
	if sent {
		logging.Debug("Watch", "Notified systemd: %s", state)
	}
}

// feedWatchdog pings the systemd watchdog at half its interval while the
// manager is running.
func feedWatchdog(ctx context.Context, manager *reconciler.Manager) {
	interval, err := sdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if manager.IsRunning() {
				notify(daemon.SdNotifyWatchdog)
			}
		}
	}
}
