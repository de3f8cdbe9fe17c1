// Package bridge implements the ovs_bridge resource type on top of ovs-vsctl.
//
// # State machine
//
// Every pass starts in Unknown and observes the host before doing anything:
//
//	Unknown --br-exists--> Absent | Present
//
//	Absent,  want present  -> add-br [--may-exist]          -> Present
//	Present, want present  -> add-br --may-exist (if AllowExisting)
//	                          br-get-external-id
//	                          br-set-external-id per missing key
//	Present, want absent   -> del-br                        -> Absent
//	Absent,  want absent   -> nothing
//
// A failing br-exists means "absent", not an error. A del-br that fails
// because the bridge is already gone counts as success.
//
// # Tags
//
// External ids are add-only: keys already present on the bridge are never
// rewritten, even when their value differs from the desired one. Each missing
// key is set with its own ovs-vsctl call, in sorted key order. If one call
// fails the pass stops; tags already set stay set and the next pass only
// targets the keys that are still missing.
//
// # Concurrency
//
// A Reconciler holds no per-resource state. Separate resources may be
// converged concurrently; one resource is converged by one goroutine at a
// time.
package bridge
