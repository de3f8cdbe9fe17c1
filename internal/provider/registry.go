package provider

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"bridgectl/internal/resource"
	"bridgectl/pkg/logging"
)

const registrySubsystem = "Registry"

// Reconciler is the interface every resource type implements.
type Reconciler interface {
	// Converge observes the resource and applies the minimal set of changes
	// needed to reach spec. It must be safe to call repeatedly.
	Converge(ctx context.Context, spec resource.Spec) resource.Result

	// Plan observes the resource and returns the changes Converge would apply.
	Plan(ctx context.Context, spec resource.Spec) ([]resource.Action, error)

	// Observe reads the current state of the named resource.
	Observe(ctx context.Context, name string) (resource.Observed, error)
}

// Factory builds a Reconciler for one dispatch.
type Factory func() (Reconciler, error)

// Registry maps resource type names to reconciler factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory for typeName.
func (r *Registry) Register(typeName string, factory Factory) error {
	if typeName == "" {
		return fmt.Errorf("cannot register provider with empty type name")
	}
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for %s", typeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[typeName]; exists {
		return fmt.Errorf("provider for %s already registered", typeName)
	}

	r.factories[typeName] = factory
	logging.Debug(registrySubsystem, "Registered provider for %s", typeName)
	return nil
}

// Has reports whether typeName is registered.
func (r *Registry) Has(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typeName]
	return ok
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.factories))
}

// Reconciler builds a fresh reconciler for typeName.
func (r *Registry) Reconciler(typeName string) (Reconciler, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownResourceTypeError{TypeName: typeName, Known: r.Types()}
	}

	rec, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s reconciler: %w", typeName, err)
	}
	return rec, nil
}

// Dispatch converges spec with the reconciler registered for typeName.
// The error is non-nil only when no reconciler could be built; convergence
// failures are reported in the Result.
func (r *Registry) Dispatch(ctx context.Context, typeName string, spec resource.Spec) (resource.Result, error) {
	rec, err := r.Reconciler(typeName)
	if err != nil {
		return resource.Result{
			Type:    typeName,
			Name:    spec.Name,
			State:   resource.StateUnknown,
			Outcome: resource.OutcomeFailure,
			Err:     err,
		}, err
	}

	result := rec.Converge(ctx, spec.Clone())
	if result.Type == "" {
		result.Type = typeName
	}
	return result, nil
}

// Plan returns the changes a dispatch of spec would apply.
func (r *Registry) Plan(ctx context.Context, typeName string, spec resource.Spec) ([]resource.Action, error) {
	rec, err := r.Reconciler(typeName)
	if err != nil {
		return nil, err
	}
	return rec.Plan(ctx, spec.Clone())
}

// Observe reads the current state of a resource of typeName.
func (r *Registry) Observe(ctx context.Context, typeName, name string) (resource.Observed, error) {
	rec, err := r.Reconciler(typeName)
	if err != nil {
		return resource.Observed{}, err
	}
	return rec.Observe(ctx, name)
}

// Unregister removes typeName from the registry.
func (r *Registry) Unregister(typeName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[typeName]; !exists {
		return &UnknownResourceTypeError{TypeName: typeName, Known: slices.Sorted(maps.Keys(r.factories))}
	}
	delete(r.factories, typeName)
	logging.Debug(registrySubsystem, "Unregistered provider for %s", typeName)
	return nil
}
