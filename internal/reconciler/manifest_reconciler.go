package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bridgectl/internal/manifest"
	"bridgectl/internal/provider"
	"bridgectl/internal/resource"
	"bridgectl/pkg/logging"
)

// Recorder persists finished convergence passes.
type Recorder interface {
	Record(ctx context.Context, runID string, started time.Time, result resource.Result) error
}

// ManifestReconciler reconciles one resource type by reading manifests from
// a store and dispatching them through the provider registry.
type ManifestReconciler struct {
	resourceType   ResourceType
	store          *manifest.Store
	registry       *provider.Registry
	recorder       Recorder
	resyncInterval time.Duration
}

// NewManifestReconciler creates a reconciler for resourceType. recorder may be
// nil. A positive resyncInterval requeues converged resources so drift on
// the host is corrected without a manifest change.
func NewManifestReconciler(resourceType ResourceType, store *manifest.Store, registry *provider.Registry, recorder Recorder, resyncInterval time.Duration) *ManifestReconciler {
	return &ManifestReconciler{
		resourceType:   resourceType,
		store:          store,
		registry:       registry,
		recorder:       recorder,
		resyncInterval: resyncInterval,
	}
}

// GetResourceType returns the type this reconciler handles.
func (r *ManifestReconciler) GetResourceType() ResourceType {
	return r.resourceType
}

// ListNames returns the names of every valid manifest of this type.
func (r *ManifestReconciler) ListNames(_ context.Context) ([]string, error) {
	manifests, err := r.store.List(string(r.resourceType))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(manifests))
	for _, m := range manifests {
		names = append(names, m.Name)
	}
	return names, nil
}

// Reconcile converges the resource named in req to its manifest.
//
// A deleted manifest stops tracking without touching the host: removing a
// bridge takes an explicit "ensure: absent".
func (r *ManifestReconciler) Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult {
	m, err := r.store.Get(string(req.Type), req.Name)
	if err != nil {
		if manifest.IsNotFound(err) {
			logging.Info(managerSubsystem, "Manifest for %s/%s removed, no longer reconciling", req.Type, req.Name)
			return ReconcileResult{Forget: true}
		}
		return ReconcileResult{
			Error:    err,
			Terminal: manifest.IsParseError(err),
			Outcome:  resource.OutcomeFailure,
		}
	}

	runID := uuid.NewString()
	started := time.Now()

	result, err := r.registry.Dispatch(resource.WithRunID(ctx, runID), m.Type, m.Spec())
	if err != nil {
		return ReconcileResult{
			Error:    err,
			Terminal: provider.IsUnknownResourceType(err),
			Outcome:  resource.OutcomeFailure,
			RunID:    runID,
		}
	}

	if r.recorder != nil {
		if err := r.recorder.Record(ctx, runID, started, result); err != nil {
			logging.Warn(managerSubsystem, "Failed to record run %s for %s/%s: %v", runID, req.Type, req.Name, err)
		}
	}

	if result.Changed() {
		logging.Info(managerSubsystem, "%s (run %s)", result.Summary(), runID)
	} else {
		logging.Debug(managerSubsystem, "%s (run %s)", result.Summary(), runID)
	}

	out := ReconcileResult{
		Outcome: result.Outcome,
		RunID:   runID,
		Changed: result.Changed(),
	}
	if result.Err != nil {
		out.Error = fmt.Errorf("%s: %w", result.Summary(), result.Err)
		return out
	}

	out.RequeueAfter = r.resyncInterval
	return out
}
