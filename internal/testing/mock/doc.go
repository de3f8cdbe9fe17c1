// Package mock provides test doubles for the processes bridgectl drives.
//
// VSwitch is an in-memory ovs-vsctl implementing executor.Runner. It keeps a
// table of bridges and their external_ids, records every invocation, and can
// be told to fail a subcommand or a single tag key:
//
//	vs := mock.NewVSwitch().AddBridge("br-int", map[string]string{"owner": "neutron"})
//	vs.FailTagKey("owner", 1, "ovs-vsctl: transaction error")
//	tool := executor.NewTool(vs, "ovs-vsctl")
package mock
