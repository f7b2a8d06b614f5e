// Package gamedir holds the configuration for the engine's directory
// layout: where character folders, stages, and the roster script live.
// The filesystem under this root is ground truth for the whole manager;
// the cached index is only ever derived from it.
package gamedir
