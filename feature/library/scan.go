package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"roster-manager/core/apperr"
	"roster-manager/core/gamedir"
	"roster-manager/feature/deffile"
)

// ScanResult is the filesystem view of the whole library.
type ScanResult struct {
	// Items holds one entry per unique (kind, id); for duplicate
	// identities the first location scanned is the one described.
	Items []ContentItem `json:"items"`
	// Duplicates maps "kind/id" to every path the identity resolves to,
	// for ids found in more than one location.
	Duplicates map[string][]string `json:"duplicates,omitempty"`
}

// Paths returns every filesystem location for the item, duplicates
// included.
func (r *ScanResult) Paths(kind Kind, id string) []string {
	if p, ok := r.Duplicates[dupKey(kind, id)]; ok {
		return p
	}
	for _, item := range r.Items {
		if item.Kind == kind && strings.EqualFold(item.ID, id) {
			return []string{item.Path}
		}
	}
	return nil
}

// Find returns the scanned item for (kind, id).
func (r *ScanResult) Find(kind Kind, id string) (*ContentItem, bool) {
	for i := range r.Items {
		if r.Items[i].Kind == kind && strings.EqualFold(r.Items[i].ID, id) {
			return &r.Items[i], true
		}
	}
	return nil, false
}

func dupKey(kind Kind, id string) string {
	return string(kind) + "/" + strings.ToLower(id)
}

// Scan walks the engine directories and builds the filesystem view.
// An unreadable definition file degrades its item (best-effort defaults,
// ReadError set) instead of failing the scan; cancellation is checked
// between items.
func Scan(ctx context.Context, cfg gamedir.Config) (*ScanResult, error) {
	result := &ScanResult{Duplicates: make(map[string][]string)}
	seen := make(map[string]int) // dupKey -> index into Items

	add := func(item ContentItem) {
		key := dupKey(item.Kind, item.ID)
		if idx, ok := seen[key]; ok {
			if len(result.Duplicates[key]) == 0 {
				result.Duplicates[key] = []string{result.Items[idx].Path}
			}
			result.Duplicates[key] = append(result.Duplicates[key], item.Path)
			return
		}
		seen[key] = len(result.Items)
		result.Items = append(result.Items, item)
	}

	if err := scanCharacters(ctx, cfg.Chars(), add); err != nil {
		return nil, err
	}
	if err := scanStages(ctx, cfg.Stages(), add); err != nil {
		return nil, err
	}
	if err := scanScreenpacks(ctx, cfg.Data(), add); err != nil {
		return nil, err
	}

	return result, nil
}

func scanCharacters(ctx context.Context, dir string, add func(ContentItem)) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperr.IO(dir, "could not read character directory", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.IsDir() {
			continue
		}
		add(scanCharacterFolder(filepath.Join(dir, e.Name()), e.Name()))
	}
	return nil
}

func scanCharacterFolder(folder, id string) ContentItem {
	item := ContentItem{
		ID:          id,
		Kind:        KindCharacter,
		DisplayName: id,
		Author:      "Unknown",
		Path:        folder,
	}

	defPath, err := findFolderDef(folder, id)
	if err != nil {
		item.ReadError = err.Error()
		return item
	}
	item.DefPath = defPath
	if fi, err := os.Stat(defPath); err == nil {
		item.ModTime = fi.ModTime()
	}

	def, err := deffile.Load(defPath)
	if err != nil {
		item.ReadError = err.Error()
		return item
	}
	fillFromDef(&item, def)
	return item
}

func scanStages(ctx context.Context, dir string, add func(ContentItem)) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipAll
			}
			return apperr.IO(path, "could not walk stage directory", err)
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".def") {
			return nil
		}

		id := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		item := ContentItem{
			ID:          id,
			Kind:        KindStage,
			DisplayName: id,
			Author:      "Unknown",
			Path:        path,
			DefPath:     path,
		}
		if fi, err := d.Info(); err == nil {
			item.ModTime = fi.ModTime()
		}

		if def, err := deffile.Load(path); err != nil {
			item.ReadError = err.Error()
		} else {
			fillFromDef(&item, def)
		}
		add(item)
		return nil
	})
	if err == filepath.SkipAll {
		return nil
	}
	return err
}

func scanScreenpacks(ctx context.Context, dir string, add func(ContentItem)) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperr.IO(dir, "could not read data directory", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.IsDir() {
			continue
		}
		system := filepath.Join(dir, e.Name(), "system.def")
		if _, err := os.Stat(system); err != nil {
			continue
		}

		item := ContentItem{
			ID:          e.Name(),
			Kind:        KindScreenpack,
			DisplayName: e.Name(),
			Author:      "Unknown",
			Path:        filepath.Join(dir, e.Name()),
			DefPath:     system,
		}
		if fi, err := os.Stat(system); err == nil {
			item.ModTime = fi.ModTime()
		}
		if def, err := deffile.Load(system); err != nil {
			item.ReadError = err.Error()
		} else {
			fillFromDef(&item, def)
		}
		add(item)
	}
	return nil
}

func fillFromDef(item *ContentItem, def *deffile.Def) {
	if def.DisplayName != "" {
		item.DisplayName = def.DisplayName
	} else if def.Name != "" {
		item.DisplayName = def.Name
	}
	if def.Author != "" {
		item.Author = def.Author
	}
	item.Sprite = def.Sprite
	item.Sound = def.Sound
	item.Cmd = def.Cmd
	item.Resolution = def.Resolution()
	item.CameraWidth = def.CameraWidth()
	item.HasMusic = def.HasMusic()
	item.Version = def.VersionDate
}

// findFolderDef locates a character folder's definition file:
// <folder>/<id>.def first, otherwise the first .def inside.
func findFolderDef(folder, id string) (string, error) {
	canonical := filepath.Join(folder, id+".def")
	if _, err := os.Stat(canonical); err == nil {
		return canonical, nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return "", apperr.IO(folder, "could not read content folder", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".def") {
			return filepath.Join(folder, e.Name()), nil
		}
	}
	return "", apperr.NotFound(id, "no definition file in folder")
}
