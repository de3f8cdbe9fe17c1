// Package resource holds the data model shared by all resource providers.
//
// A Spec is the desired state handed in by the orchestrator, an Observed is
// what a provider read from the host during the current pass, and a Result
// reports what the pass did. The package carries no behavior beyond
// validation and diff helpers.
//
// # Tag policy
//
// TagsToAdd implements an add-only merge: only keys missing on the host are
// set. A key that exists with a different value is reported by DriftedTags
// but never overwritten.
package resource
