// Package reconciler keeps the host converged to the manifest tree while
// bridgectl runs in watch mode.
//
// # Overview
//
// Convergence of a single resource lives in the provider packages (see
// internal/bridge). This package decides when to run it: on start-up for
// every manifest, whenever a manifest file changes, periodically to correct
// drift made behind bridgectl's back, and again with backoff after a failure.
//
// # Architecture
//
//   - Manager: coordinates the detector, the work queue and the workers
//   - Reconciler: per-type logic, usually a ManifestReconciler
//   - ChangeDetector: turns fsnotify events under <manifests>/<type-dir>/ into ChangeEvents
//   - delayedQueue: deduplicating FIFO with delayed requeue for retries and resyncs
//
// A resource is handled by at most one worker at a time. Changes that arrive
// while it is being processed are folded into a single follow-up pass.
//
// # Usage
//
//	manager := reconciler.NewManager(reconciler.ManagerConfig{
//	    ManifestsPath: cfg.Manifests.Path,
//	    WorkerCount:   cfg.Reconciler.Workers,
//	})
//	rec := reconciler.NewManifestReconciler(bridge.TypeName, store, registry, journal, cfg.Reconciler.ResyncInterval)
//	if err := manager.RegisterReconciler(rec); err != nil {
//	    return err
//	}
//	if err := manager.Start(ctx); err != nil {
//	    return fmt.Errorf("failed to start reconciliation: %w", err)
//	}
//	defer manager.Stop()
//
// # Failure Handling
//
// A failed pass is retried with exponential backoff up to MaxRetries
// attempts, after which the resource is marked Failed until its manifest
// changes again. Invalid manifests and unknown resource types are marked
// Failed straight away. Removing a manifest file stops tracking the resource
// and leaves the host untouched; use "ensure: absent" to remove a bridge.
package reconciler
