// Package history keeps a SQLite journal of convergence passes.
//
// Every pass made by "bridgectl apply" or the watch manager is recorded with
// its run ID, outcome, the actions it applied and the error that stopped it,
// so "bridgectl history" can answer what changed on a host and when. The run
// ID also appears on the [ACTION] log lines of the pass.
//
// The schema is versioned by the embedded migrations/*.sql files, applied in
// order on Open.
package history
