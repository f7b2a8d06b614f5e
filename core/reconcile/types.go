package reconcile

import "time"

// Status is the single per-item state derived from the three views of the
// library. It is computed, never stored as truth.
type Status string

const (
	// StatusActive: in the roster script, files present and valid.
	StatusActive Status = "active"
	// StatusUnregistered: files present, absent from the roster script.
	StatusUnregistered Status = "unregistered"
	// StatusMissing: in the roster script, files absent.
	StatusMissing Status = "missing"
	// StatusBroken: folder present but the definition file is absent or
	// unreadable.
	StatusBroken Status = "broken"
	// StatusDuplicate: the same logical identity resolves to more than
	// one filesystem location.
	StatusDuplicate Status = "duplicate"
	// StatusDisabled: present in the roster script as a commented-out
	// entry, files present and valid.
	StatusDisabled Status = "disabled"
)

// FSEntry is the filesystem view of one content id.
type FSEntry struct {
	// ID is the stable content id.
	ID string `json:"id"`
	// Valid reports whether the required definition file was readable.
	Valid bool `json:"valid"`
	// Paths lists every filesystem location resolving to this id.
	// More than one is a duplicate identity.
	Paths []string `json:"paths"`
}

// ScriptEntry is the roster script view of one content id.
type ScriptEntry struct {
	// ID is the stable content id.
	ID string `json:"id"`
	// Disabled reports whether the entry is comment-prefixed.
	Disabled bool `json:"disabled"`
}

// IndexEntry is the cached index view of one content id.
type IndexEntry struct {
	// ID is the stable content id.
	ID string `json:"id"`
	// Stale reports whether the indexed row lags the file on disk.
	Stale bool `json:"stale"`
}

// Result is the reconciliation output for a single content id.
type Result struct {
	// ID is the stable content id.
	ID string `json:"id"`
	// Status is the derived per-item state.
	Status Status `json:"status"`
	// FSPresent indicates the item exists on disk.
	FSPresent bool `json:"fs_present"`
	// ScriptPresent indicates the item is referenced by the roster script.
	ScriptPresent bool `json:"script_present"`
	// ScriptDisabled indicates the reference is comment-prefixed.
	ScriptDisabled bool `json:"script_disabled"`
	// IndexPresent indicates the item exists in the cached index.
	IndexPresent bool `json:"index_present"`
	// Valid indicates the definition file was readable.
	Valid bool `json:"valid"`
	// Paths lists the filesystem locations for the id.
	Paths []string `json:"paths,omitempty"`
}

// ActionType is the type of index-repair mutation.
type ActionType string

const (
	// ActionUpsertIndex inserts or refreshes an index row from disk.
	ActionUpsertIndex ActionType = "upsert_index"
	// ActionDeleteIndex removes an index row whose files vanished.
	ActionDeleteIndex ActionType = "delete_index"
)

// Action is a planned index-repair operation. The reconciler never plans
// script or filesystem mutations; the index is the only derived store.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`
	// ID is the content id.
	ID string `json:"id"`
	// Reason explains why this action is needed.
	Reason string `json:"reason"`
}

// Summary provides aggregate counts for a reconcile plan.
type Summary struct {
	TotalItems   int `json:"total_items"`
	Active       int `json:"active"`
	Unregistered int `json:"unregistered"`
	Missing      int `json:"missing"`
	Broken       int `json:"broken"`
	Duplicate    int `json:"duplicate"`
	Disabled     int `json:"disabled"`
	// RepairActions counts planned index repairs.
	RepairActions int `json:"repair_actions"`
}

// Plan contains reconciliation results and planned index repairs.
type Plan struct {
	Results []Result `json:"results"`
	Actions []Action `json:"actions"`
	Summary Summary  `json:"summary"`
}

// Options controls plan/apply behavior.
type Options struct {
	// DryRun prevents execution of any repairs if true.
	DryRun bool
	// DoRepair enables index repair actions in the plan.
	DoRepair bool
	// Confirmed indicates the caller confirmed mutations. If false,
	// Apply executes nothing regardless of DryRun.
	Confirmed bool
}

// Snapshot holds the three indices a reconciliation pass works from.
type Snapshot struct {
	FS     map[string]FSEntry
	Script map[string]ScriptEntry
	Index  map[string]IndexEntry
	// Built is when this snapshot was assembled.
	Built time.Time
	// TTL is the snapshot's time-to-live in the cache.
	TTL time.Duration
}

// IsExpired reports whether the snapshot outlived its TTL.
func (s *Snapshot) IsExpired() bool {
	if s.TTL == 0 {
		return true
	}
	return time.Since(s.Built) > s.TTL
}
