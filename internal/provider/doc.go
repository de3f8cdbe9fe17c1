// Package provider maps resource type names to reconcilers.
//
// A Registry is filled once at startup, typically with bridge.Register, and
// then used read-only by the apply command and the watch manager. Every
// dispatch builds a fresh Reconciler from the registered Factory so no state
// leaks between resources.
//
//	reg := provider.NewRegistry()
//	if err := bridge.Register(reg, tool); err != nil {
//		return err
//	}
//	result, err := reg.Dispatch(ctx, "ovs_bridge", resource.Spec{Name: "br0", Present: true})
//
// Dispatch of an unregistered type fails with *UnknownResourceTypeError.
package provider
