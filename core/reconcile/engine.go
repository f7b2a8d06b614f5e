package reconcile

import (
	"context"
	"sort"
	"sync"
)

// Sources loads the three views of the library. Implementations decide
// where the data comes from (filesystem scan, script parse, index query);
// the engine only merges.
type Sources interface {
	// LoadFilesystem scans the content directories.
	LoadFilesystem(ctx context.Context) (map[string]FSEntry, error)
	// LoadScript parses the roster script.
	LoadScript(ctx context.Context) (map[string]ScriptEntry, error)
	// LoadIndex queries the cached index.
	LoadIndex(ctx context.Context) (map[string]IndexEntry, error)
}

// Mutator executes index-repair actions. The filesystem and script are
// never mutated by the reconciler.
type Mutator interface {
	// UpsertIndex inserts or refreshes the index row for id from disk.
	UpsertIndex(ctx context.Context, id string) error
	// DeleteIndex removes the index row for id.
	DeleteIndex(ctx context.Context, id string) error
}

// BuildSnapshot loads all three views concurrently and returns them as
// one snapshot. Any single load error fails the build; a reconciliation
// over partial inputs would mis-derive statuses.
func BuildSnapshot(ctx context.Context, src Sources) (*Snapshot, error) {
	var (
		fs        map[string]FSEntry
		script    map[string]ScriptEntry
		index     map[string]IndexEntry
		fsErr     error
		scriptErr error
		indexErr  error
		wg        sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		fs, fsErr = src.LoadFilesystem(ctx)
	}()
	go func() {
		defer wg.Done()
		script, scriptErr = src.LoadScript(ctx)
	}()
	go func() {
		defer wg.Done()
		index, indexErr = src.LoadIndex(ctx)
	}()
	wg.Wait()

	if fsErr != nil {
		return nil, fsErr
	}
	if scriptErr != nil {
		return nil, scriptErr
	}
	if indexErr != nil {
		return nil, indexErr
	}

	return newSnapshot(fs, script, index), nil
}

// Derive computes the per-item result for every id in the union of the
// three views, sorted by id for deterministic output. It is a pure
// function of the snapshot.
func Derive(snap *Snapshot) []Result {
	union := make(map[string]struct{})
	for id := range snap.FS {
		union[id] = struct{}{}
	}
	for id := range snap.Script {
		union[id] = struct{}{}
	}
	for id := range snap.Index {
		union[id] = struct{}{}
	}

	results := make([]Result, 0, len(union))
	for id := range union {
		results = append(results, deriveOne(id, snap))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})
	return results
}

// deriveOne applies the status table to one id.
//
// Filesystem wins for existence, the script wins for enabled/ordering
// state, and the index never influences status at all: it is derived data
// repaired to match, not a source of truth.
func deriveOne(id string, snap *Snapshot) Result {
	fs, fsPresent := snap.FS[id]
	script, scriptPresent := snap.Script[id]
	_, indexPresent := snap.Index[id]

	r := Result{
		ID:             id,
		FSPresent:      fsPresent,
		ScriptPresent:  scriptPresent,
		ScriptDisabled: scriptPresent && script.Disabled,
		IndexPresent:   indexPresent,
		Valid:          fsPresent && fs.Valid,
		Paths:          fs.Paths,
	}

	switch {
	case fsPresent && len(fs.Paths) > 1:
		r.Status = StatusDuplicate
	case !fsPresent:
		// Only the script (or a stale index row) knows this id.
		r.Status = StatusMissing
	case !fs.Valid:
		r.Status = StatusBroken
	case !scriptPresent:
		r.Status = StatusUnregistered
	case script.Disabled:
		r.Status = StatusDisabled
	default:
		r.Status = StatusActive
	}
	return r
}

// BuildPlan derives results and, when opts.DoRepair is set, plans the
// index mutations that make the index an exact mirror of the filesystem.
func BuildPlan(snap *Snapshot, opts Options) *Plan {
	results := Derive(snap)

	var summary Summary
	var actions []Action
	summary.TotalItems = len(results)

	for _, r := range results {
		switch r.Status {
		case StatusActive:
			summary.Active++
		case StatusUnregistered:
			summary.Unregistered++
		case StatusMissing:
			summary.Missing++
		case StatusBroken:
			summary.Broken++
		case StatusDuplicate:
			summary.Duplicate++
		case StatusDisabled:
			summary.Disabled++
		}

		if !opts.DoRepair {
			continue
		}
		switch {
		case r.FSPresent && !r.IndexPresent:
			actions = append(actions, Action{Type: ActionUpsertIndex, ID: r.ID, Reason: "on disk but not indexed"})
		case r.FSPresent && r.IndexPresent && snap.Index[r.ID].Stale:
			actions = append(actions, Action{Type: ActionUpsertIndex, ID: r.ID, Reason: "index row older than files"})
		case !r.FSPresent && r.IndexPresent:
			actions = append(actions, Action{Type: ActionDeleteIndex, ID: r.ID, Reason: "indexed but gone from disk"})
		}
	}
	summary.RepairActions = len(actions)

	return &Plan{Results: results, Actions: actions, Summary: summary}
}

// Apply executes the plan's index repairs. It requires opts.Confirmed and
// not opts.DryRun, returns the number of executed actions, and stops on
// the first error: a half-repaired index is converged by the next pass.
func Apply(ctx context.Context, plan *Plan, m Mutator, opts Options) (int, error) {
	if !opts.Confirmed || opts.DryRun {
		return 0, nil
	}

	executed := 0
	for _, action := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		var err error
		switch action.Type {
		case ActionUpsertIndex:
			err = m.UpsertIndex(ctx, action.ID)
		case ActionDeleteIndex:
			err = m.DeleteIndex(ctx, action.ID)
		}
		if err != nil {
			return executed, err
		}
		executed++
	}
	return executed, nil
}
