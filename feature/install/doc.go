// Package install copies new content into the engine tree and registers
// it with the roster script and library index as one unit.
//
// Installation holds the library mutation lock for the copy and the
// script edit, so a concurrent enable or reorder never interleaves with
// it. Conflicts are detected before the first byte is copied: declining
// an overwrite leaves the tree, the script, and the index untouched.
// Identifiers are sanitized on the way in, so installed content never
// reintroduces the naming problems the sanitizer exists to fix.
package install
