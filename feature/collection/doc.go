// Package collection implements named rosters over the library index.
//
// A collection is either explicit (an ordered member list plus associated
// screenpack, lifebar, font, and sound paths) or smart (a rule set over
// the index, re-evaluated on every resolve so new content flows in
// automatically). Collections reference content by stable id; deleting a
// collection never deletes content, and deleting content never silently
// deletes a collection.
//
// Two invariants are enforced by the service: exactly one default
// collection exists (the full, ungrouped library) and at most one
// collection is active at a time.
package collection
