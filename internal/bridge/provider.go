package bridge

import (
	"fmt"

	"bridgectl/internal/executor"
	"bridgectl/internal/provider"
)

// Register adds the ovs_bridge type to reg. Every dispatch gets its own
// Reconciler sharing tool.
func Register(reg *provider.Registry, tool *executor.Tool) error {
	if tool == nil {
		return fmt.Errorf("cannot register %s without an ovs-vsctl tool", TypeName)
	}
	return reg.Register(TypeName, func() (provider.Reconciler, error) {
		return New(tool), nil
	})
}
