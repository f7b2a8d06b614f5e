// Package library implements the content library feature: filesystem
// scanning, the persistent index, and the status-annotated views the UI
// layer consumes.
//
// Three sources feed it:
//  1. Filesystem: chars/<folder>/<name>.def, stages/<name>.def, and
//     data/<screenpack>/system.def. Ground truth for existence.
//  2. Roster script: ground truth for enabled/ordering state, edited only
//     through the feature/roster codec.
//  3. Index: GORM tables (characters, stages, screenpacks) keyed by the
//     stable content id. Derived data, rebuilt by Reindex and repaired by
//     reconciliation; never trusted over the other two.
//
// # Components
//
//   - Scan: walks the engine directories into ContentItems; unreadable
//     definition files degrade a single item instead of failing the pass.
//   - Store: index queries (case-insensitive ordering, substring search,
//     fuzzy suggestions) and the transactional Reindex mirror.
//   - Service: reconciliation triggers, status views, and the single
//     mutation owner for every roster script write.
//   - Handler: /library and /roster HTTP endpoints.
package library
