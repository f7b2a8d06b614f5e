// Package database opens the GORM connection backing the library index.
//
// The index is derived data: every row is rebuildable from a filesystem
// scan plus the roster script. The default driver is embedded SQLite so a
// fresh install needs no external service; MySQL is selectable for shared
// library setups.
package database
