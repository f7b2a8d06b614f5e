// Package apperr defines the application error taxonomy.
//
// Every failure surfaced to a caller is classified by a Kind:
//
//   - NotFound: an id, roster entry, or file is absent.
//   - Invalid: malformed input (script line, definition file, rule literal).
//   - Conflict: duplicate identity or a declined overwrite.
//   - IOFailure: a disk read or write error.
//
// Single-item operations fail fast with one typed Error carrying the id and
// path involved. Batch operations never abort early: they accumulate a
// BatchResult with a success list and a failure list so callers can report
// outcomes like "installed 6 of 7, 1 failed".
package apperr
