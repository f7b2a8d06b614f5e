// Package reconcile merges the three independently-mutable views of the
// content library into a single per-item status.
//
// The three views are:
//
//  1. Filesystem: character folders and stage defs on disk. Wins for
//     existence.
//  2. Roster script: the engine's select script. Wins for enabled and
//     ordering state.
//  3. Index: the cached relational projection. Derived data only; when it
//     disagrees with the other two it is repaired, never believed.
//
// # Architecture
//
// 1. Sources: an interface the library feature implements; each view is
// loaded concurrently into an in-memory map keyed by content id.
//
// 2. Engine: Derive applies the status table to the union of ids —
// active, unregistered, missing, broken, duplicate, disabled. BuildPlan
// additionally plans index repairs (upsert rows for unindexed or stale
// items, delete rows for vanished ones). Apply executes repairs through a
// Mutator, and only repairs the index: remediation of missing script
// entries or unregistered folders is offered to the user, never automatic.
//
// 3. SnapshotCache: TTL cache with singleflight stampede protection.
// Reconciliation runs on explicit triggers (startup, manual refresh, after
// any mutation); callers tolerate superseded results, last pass wins.
package reconcile
