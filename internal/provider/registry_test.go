package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgectl/internal/resource"
)

type fakeReconciler struct {
	converged []resource.Spec
	actions   []resource.Action
	observed  resource.Observed
}

func (f *fakeReconciler) Converge(_ context.Context, spec resource.Spec) resource.Result {
	f.converged = append(f.converged, spec)
	return resource.Result{Name: spec.Name, Outcome: resource.OutcomeSuccess, State: resource.StatePresent}
}

func (f *fakeReconciler) Plan(_ context.Context, _ resource.Spec) ([]resource.Action, error) {
	return f.actions, nil
}

func (f *fakeReconciler) Observe(_ context.Context, _ string) (resource.Observed, error) {
	return f.observed, nil
}

func staticFactory(rec Reconciler) Factory {
	return func() (Reconciler, error) { return rec, nil }
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register("ovs_bridge", staticFactory(&fakeReconciler{})))
	assert.True(t, reg.Has("ovs_bridge"))

	err := reg.Register("ovs_bridge", staticFactory(&fakeReconciler{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.Error(t, reg.Register("", staticFactory(&fakeReconciler{})))
	assert.Error(t, reg.Register("ovs_port", nil))
}

func TestRegistry_Types(t *testing.T) {
	reg := NewRegistry()
	assert.Empty(t, reg.Types())

	for _, name := range []string{"ovs_port", "ovs_bridge", "linux_bond"} {
		require.NoError(t, reg.Register(name, staticFactory(&fakeReconciler{})))
	}

	assert.Equal(t, []string{"linux_bond", "ovs_bridge", "ovs_port"}, reg.Types())
}

func TestRegistry_DispatchRoutesToType(t *testing.T) {
	reg := NewRegistry()
	bridges := &fakeReconciler{}
	ports := &fakeReconciler{}
	require.NoError(t, reg.Register("ovs_bridge", staticFactory(bridges)))
	require.NoError(t, reg.Register("ovs_port", staticFactory(ports)))

	result, err := reg.Dispatch(context.Background(), "ovs_bridge", resource.Spec{Name: "br0", Present: true})

	require.NoError(t, err)
	assert.Equal(t, "ovs_bridge", result.Type, "type is filled in when the reconciler leaves it empty")
	assert.Equal(t, "br0", result.Name)
	assert.Len(t, bridges.converged, 1)
	assert.Empty(t, ports.converged)
}

func TestRegistry_DispatchUnknownType(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("ovs_bridge", staticFactory(&fakeReconciler{})))

	result, err := reg.Dispatch(context.Background(), "ovs_port", resource.Spec{Name: "p0", Present: true})

	require.Error(t, err)
	assert.True(t, IsUnknownResourceType(err))
	assert.Contains(t, err.Error(), "ovs_port")
	assert.Contains(t, err.Error(), "ovs_bridge")
	assert.Equal(t, resource.OutcomeFailure, result.Outcome)
	assert.Equal(t, err, result.Err)
}

func TestRegistry_DispatchClonesSpec(t *testing.T) {
	reg := NewRegistry()
	rec := &fakeReconciler{}
	require.NoError(t, reg.Register("ovs_bridge", staticFactory(rec)))

	spec := resource.Spec{Name: "br0", Present: true, Tags: map[string]string{"a": "1"}}
	_, err := reg.Dispatch(context.Background(), "ovs_bridge", spec)
	require.NoError(t, err)

	rec.converged[0].Tags["a"] = "changed"
	assert.Equal(t, "1", spec.Tags["a"])
}

func TestRegistry_FactoryPerDispatch(t *testing.T) {
	reg := NewRegistry()
	var built atomic.Int32
	require.NoError(t, reg.Register("ovs_bridge", func() (Reconciler, error) {
		built.Add(1)
		return &fakeReconciler{}, nil
	}))

	for range 3 {
		_, err := reg.Dispatch(context.Background(), "ovs_bridge", resource.Spec{Name: "br0", Present: true})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), built.Load())
}

func TestRegistry_FactoryError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("ovs-vsctl not installed")
	require.NoError(t, reg.Register("ovs_bridge", func() (Reconciler, error) { return nil, boom }))

	_, err := reg.Dispatch(context.Background(), "ovs_bridge", resource.Spec{Name: "br0", Present: true})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsUnknownResourceType(err))
}

func TestRegistry_PlanAndObserve(t *testing.T) {
	reg := NewRegistry()
	rec := &fakeReconciler{
		actions:  []resource.Action{{Kind: resource.ActionCreate}},
		observed: resource.Observed{Exists: true, Tags: map[string]string{"a": "1"}},
	}
	require.NoError(t, reg.Register("ovs_bridge", staticFactory(rec)))

	actions, err := reg.Plan(context.Background(), "ovs_bridge", resource.Spec{Name: "br0", Present: true})
	require.NoError(t, err)
	assert.Equal(t, rec.actions, actions)

	observed, err := reg.Observe(context.Background(), "ovs_bridge", "br0")
	require.NoError(t, err)
	assert.True(t, observed.Exists)

	_, err = reg.Plan(context.Background(), "nope", resource.Spec{Name: "x"})
	assert.True(t, IsUnknownResourceType(err))
	_, err = reg.Observe(context.Background(), "nope", "x")
	assert.True(t, IsUnknownResourceType(err))
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("ovs_bridge", staticFactory(&fakeReconciler{})))

	require.NoError(t, reg.Unregister("ovs_bridge"))
	assert.False(t, reg.Has("ovs_bridge"))
	assert.True(t, IsUnknownResourceType(reg.Unregister("ovs_bridge")))
}

func TestRegistry_ConcurrentDispatch(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("ovs_bridge", func() (Reconciler, error) {
		return &fakeReconciler{}, nil
	}))

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = reg.Dispatch(context.Background(), "ovs_bridge", resource.Spec{Name: "br0", Present: i%2 == 0})
			_ = reg.Types()
		}(i)
	}
	wg.Wait()
}
