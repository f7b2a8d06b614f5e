package library

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"roster-manager/core/apperr"
	"roster-manager/core/gamedir"
	"roster-manager/core/reconcile"
	"roster-manager/core/scriptio"
	"roster-manager/feature/roster"

	"go.uber.org/zap"
)

// snapshotTTL bounds how long a reconciliation snapshot is reused between
// explicit triggers.
const snapshotTTL = 30 * time.Second

// ItemView is what the UI layer consumes: the reconciled status merged
// with the index record when one exists. Plain data, no UI types.
type ItemView struct {
	ID     string           `json:"id"`
	Kind   Kind             `json:"kind"`
	Name   string           `json:"name"`
	Author string           `json:"author,omitempty"`
	Status reconcile.Status `json:"status"`
	// Disabled mirrors the script's comment-prefix state.
	Disabled bool `json:"disabled"`
	// Paths lists every filesystem location; more than one is a duplicate.
	Paths []string `json:"paths,omitempty"`
	// Record is the cached index row, nil for unindexed items.
	Record *Record `json:"record,omitempty"`
}

// Service owns the library: it reconciles the filesystem, roster script,
// and index, and serializes every mutation behind one lock so script
// writes never interleave. Read queries run concurrently.
type Service struct {
	cfg    gamedir.Config
	store  *Store
	saver  *scriptio.Saver
	logger *zap.Logger

	// mu is the single mutation owner for script and filesystem writes.
	mu sync.Mutex

	caches   map[Kind]*reconcile.SnapshotCache
	lastScan atomic.Pointer[ScanResult]
}

// NewService wires the library service. All collaborators are injected;
// the service holds no process-wide state.
func NewService(cfg gamedir.Config, store *Store, saver *scriptio.Saver, logger *zap.Logger) *Service {
	s := &Service{
		cfg:    cfg,
		store:  store,
		saver:  saver,
		logger: logger,
		caches: make(map[Kind]*reconcile.SnapshotCache),
	}
	for _, kind := range []Kind{KindCharacter, KindStage, KindScreenpack} {
		s.caches[kind] = reconcile.NewSnapshotCache(kindSources{svc: s, kind: kind}, snapshotTTL)
	}
	return s
}

// Config exposes the engine directory layout to collaborators (installer,
// CLI) that operate on the same tree.
func (s *Service) Config() gamedir.Config { return s.cfg }

// Store exposes the index for read-side collaborators.
func (s *Service) Store() *Store { return s.store }

// LoadScript reads and parses the roster script. A missing script yields
// an empty model (fresh install); an unparseable one is Invalid and no
// write will ever be attempted against it.
func (s *Service) LoadScript() (*roster.Script, error) {
	data, err := os.ReadFile(s.cfg.Select())
	if os.IsNotExist(err) {
		return &roster.Script{}, nil
	}
	if err != nil {
		return nil, apperr.IO(s.cfg.Select(), "could not read roster script", err)
	}
	return roster.Parse(string(data))
}

// SaveScript renders and persists the script: timestamped backup, atomic
// replace, optional mirror upload. Callers must hold the mutation lock.
func (s *Service) saveScript(ctx context.Context, script *roster.Script) error {
	return s.saver.Save(ctx, s.cfg.Select(), []byte(script.Render()))
}

// invalidate drops every kind's snapshot after a mutation.
func (s *Service) invalidate() {
	for _, c := range s.caches {
		c.Invalidate()
	}
}

// Reconcile returns the current plan for the kind, applying index repairs
// unless opts disable them. This is the explicit trigger: app launch,
// manual refresh, or post-mutation.
func (s *Service) Reconcile(ctx context.Context, kind Kind, opts reconcile.Options) (*reconcile.Plan, error) {
	cache, ok := s.caches[kind]
	if !ok {
		return nil, apperr.Invalid("unknown content kind "+string(kind), nil)
	}

	snap, err := cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	plan := reconcile.BuildPlan(snap, opts)

	if len(plan.Actions) > 0 {
		executed, err := reconcile.Apply(ctx, plan, kindMutator{svc: s, kind: kind}, opts)
		if err != nil {
			s.logger.Warn("Index repair incomplete",
				zap.String("kind", string(kind)),
				zap.Int("executed", executed),
				zap.Error(err))
		} else if executed > 0 {
			s.logger.Info("Index repaired",
				zap.String("kind", string(kind)),
				zap.Int("actions", executed))
			cache.Invalidate()
		}
	}
	return plan, nil
}

// Refresh forces a fresh reconciliation pass with index repair.
func (s *Service) Refresh(ctx context.Context, kind Kind) (*reconcile.Plan, error) {
	if cache, ok := s.caches[kind]; ok {
		cache.Invalidate()
	}
	return s.Reconcile(ctx, kind, reconcile.Options{DoRepair: true, Confirmed: true})
}

// List returns the status-annotated item views for the kind, ordered
// case-insensitively by name.
func (s *Service) List(ctx context.Context, kind Kind) ([]ItemView, error) {
	plan, err := s.Reconcile(ctx, kind, reconcile.Options{DoRepair: true, Confirmed: true})
	if err != nil {
		return nil, err
	}

	recs, err := s.store.All(ctx, kind)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*Record, len(recs))
	for i := range recs {
		byID[recs[i].ID] = &recs[i]
	}

	views := make([]ItemView, 0, len(plan.Results))
	for _, r := range plan.Results {
		views = append(views, s.viewOf(kind, r, byID[r.ID]))
	}
	sortViews(views)
	return views, nil
}

// Search returns status-annotated views whose name or author contains the
// query (case-insensitive substring).
func (s *Service) Search(ctx context.Context, kind Kind, query string) ([]ItemView, error) {
	plan, err := s.Reconcile(ctx, kind, reconcile.Options{DoRepair: true, Confirmed: true})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]reconcile.Result, len(plan.Results))
	for _, r := range plan.Results {
		byID[r.ID] = r
	}

	recs, err := s.store.Search(ctx, kind, query)
	if err != nil {
		return nil, err
	}

	views := make([]ItemView, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		r, ok := byID[rec.ID]
		if !ok {
			r = reconcile.Result{ID: rec.ID, Status: reconcile.StatusMissing}
		}
		views = append(views, s.viewOf(kind, r, rec))
	}
	return views, nil
}

// Suggest returns fuzzy name matches from the index, best match first.
func (s *Service) Suggest(ctx context.Context, kind Kind, query string, limit int) ([]Record, error) {
	return s.store.Suggest(ctx, kind, query, limit)
}

// Reindex rebuilds the kind's index table from a full filesystem scan.
func (s *Service) Reindex(ctx context.Context, kind Kind) error {
	scan, err := s.scan(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Reindex(ctx, kind, scan.Items); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// ReindexAll rebuilds every kind's table from one scan.
func (s *Service) ReindexAll(ctx context.Context) error {
	scan, err := s.scan(ctx)
	if err != nil {
		return err
	}
	for _, kind := range []Kind{KindCharacter, KindStage, KindScreenpack} {
		if err := s.store.Reindex(ctx, kind, scan.Items); err != nil {
			return err
		}
	}
	s.invalidate()
	return nil
}

// SectionFor maps a content kind to its roster script section. Screenpacks
// are referenced by directives, not entries, so they have none.
func SectionFor(kind Kind) (string, error) {
	switch kind {
	case KindCharacter:
		return roster.SectionCharacters, nil
	case KindStage:
		return roster.SectionStages, nil
	}
	return "", apperr.Invalid("kind "+string(kind)+" has no roster entries", nil)
}

// EnableEntry uncomments the kind's roster entry for key. The kind scopes
// the lookup so a character and a stage sharing an id stay addressable.
func (s *Service) EnableEntry(ctx context.Context, kind Kind, key string) error {
	section, err := SectionFor(kind)
	if err != nil {
		return err
	}
	return s.mutateScript(ctx, func(script *roster.Script) error {
		return script.EnableIn(section, key)
	})
}

// DisableEntry comments out the kind's roster entry for key, preserving
// the line.
func (s *Service) DisableEntry(ctx context.Context, kind Kind, key string) error {
	section, err := SectionFor(kind)
	if err != nil {
		return err
	}
	return s.mutateScript(ctx, func(script *roster.Script) error {
		return script.DisableIn(section, key)
	})
}

// RemoveEntry deletes the kind's roster entry for key outright. The
// remediation for a missing item, offered to the user, never automatic.
func (s *Service) RemoveEntry(ctx context.Context, kind Kind, key string) error {
	section, err := SectionFor(kind)
	if err != nil {
		return err
	}
	return s.mutateScript(ctx, func(script *roster.Script) error {
		return script.RemoveIn(section, key)
	})
}

// RegisterEntry adds a canonical roster entry for an unregistered item.
func (s *Service) RegisterEntry(ctx context.Context, kind Kind, id string) error {
	section, err := SectionFor(kind)
	if err != nil {
		return err
	}
	return s.mutateScript(ctx, func(script *roster.Script) error {
		return script.Add(section, &roster.Entry{ID: id, Row: -1, Col: -1}, -1)
	})
}

// ReorderEntries rewrites a section's entry order to match keys.
func (s *Service) ReorderEntries(ctx context.Context, section string, keys []string) error {
	return s.mutateScript(ctx, func(script *roster.Script) error {
		return script.Reorder(section, keys)
	})
}

// MutateScript runs fn against the parsed script and persists the result.
// The single mutation owner: every script write in the process goes
// through here.
func (s *Service) mutateScript(ctx context.Context, fn func(*roster.Script) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.MutateScriptLocked(ctx, fn)
}

// MutationLock exposes the mutation lock to collaborators (the installer)
// that combine filesystem copies with script registration as one unit.
func (s *Service) MutationLock() *sync.Mutex { return &s.mu }

// MutateScriptLocked is mutateScript for callers already holding the lock.
func (s *Service) MutateScriptLocked(ctx context.Context, fn func(*roster.Script) error) error {
	script, err := s.LoadScript()
	if err != nil {
		return err
	}
	if err := fn(script); err != nil {
		return err
	}
	if err := s.saveScript(ctx, script); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Invalidate drops cached snapshots; collaborators call it after
// out-of-band filesystem changes (installs, renames).
func (s *Service) Invalidate() { s.invalidate() }

func (s *Service) scan(ctx context.Context) (*ScanResult, error) {
	scan, err := Scan(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	s.lastScan.Store(scan)
	return scan, nil
}

func (s *Service) viewOf(kind Kind, r reconcile.Result, rec *Record) ItemView {
	view := ItemView{
		ID:       r.ID,
		Kind:     kind,
		Status:   r.Status,
		Disabled: r.ScriptDisabled,
		Paths:    r.Paths,
		Record:   rec,
	}
	if rec != nil {
		view.Name = rec.Name
		view.Author = rec.Author
	}
	if view.Name == "" {
		if scan := s.lastScan.Load(); scan != nil {
			if item, ok := scan.Find(kind, r.ID); ok {
				view.Name = item.DisplayName
				view.Author = item.Author
			}
		}
	}
	if view.Name == "" {
		view.Name = r.ID
	}
	return view
}

func sortViews(views []ItemView) {
	// Case-insensitive by name, id as tiebreak, matching the index order
	// contract.
	sort.Slice(views, func(i, j int) bool {
		a, b := strings.ToLower(views[i].Name), strings.ToLower(views[j].Name)
		if a != b {
			return a < b
		}
		return views[i].ID < views[j].ID
	})
}

// kindSources adapts the service to reconcile.Sources for one kind.
type kindSources struct {
	svc  *Service
	kind Kind
}

func (k kindSources) LoadFilesystem(ctx context.Context) (map[string]reconcile.FSEntry, error) {
	scan, err := k.svc.scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]reconcile.FSEntry)
	for _, item := range scan.Items {
		if item.Kind != k.kind {
			continue
		}
		out[item.ID] = reconcile.FSEntry{
			ID:    item.ID,
			Valid: item.Valid(),
			Paths: scan.Paths(k.kind, item.ID),
		}
	}
	return out, nil
}

func (k kindSources) LoadScript(ctx context.Context) (map[string]reconcile.ScriptEntry, error) {
	script, err := k.svc.LoadScript()
	if err != nil {
		return nil, err
	}

	section := roster.SectionCharacters
	switch k.kind {
	case KindStage:
		section = roster.SectionStages
	case KindScreenpack:
		// Screenpacks are referenced by directives, not entries.
		return map[string]reconcile.ScriptEntry{}, nil
	}

	out := make(map[string]reconcile.ScriptEntry)
	for _, ref := range script.Entries(section) {
		e := ref.Entry
		if e.Random || e.Blank {
			continue
		}
		// An id both enabled and disabled counts as enabled.
		if cur, ok := out[e.ID]; ok && !cur.Disabled {
			continue
		}
		out[e.ID] = reconcile.ScriptEntry{ID: e.ID, Disabled: e.Disabled}
	}
	return out, nil
}

func (k kindSources) LoadIndex(ctx context.Context) (map[string]reconcile.IndexEntry, error) {
	recs, err := k.svc.store.All(ctx, k.kind)
	if err != nil {
		return nil, err
	}

	scan := k.svc.lastScan.Load()
	out := make(map[string]reconcile.IndexEntry, len(recs))
	for _, rec := range recs {
		stale := false
		if scan != nil {
			if item, ok := scan.Find(k.kind, rec.ID); ok {
				stale = item.ModTime.After(rec.FileModTime)
			}
		}
		out[rec.ID] = reconcile.IndexEntry{ID: rec.ID, Stale: stale}
	}
	return out, nil
}

// kindMutator adapts the service to reconcile.Mutator for one kind.
type kindMutator struct {
	svc  *Service
	kind Kind
}

func (k kindMutator) UpsertIndex(ctx context.Context, id string) error {
	scan := k.svc.lastScan.Load()
	if scan == nil {
		return apperr.NotFound(id, "no scan available for index repair")
	}
	item, ok := scan.Find(k.kind, id)
	if !ok {
		return apperr.NotFound(id, "not present in filesystem scan")
	}
	return k.svc.store.Upsert(ctx, k.kind, RecordOf(*item))
}

func (k kindMutator) DeleteIndex(ctx context.Context, id string) error {
	return k.svc.store.Delete(ctx, k.kind, id)
}
