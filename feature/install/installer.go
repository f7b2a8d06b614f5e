package install

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"roster-manager/core/apperr"
	"roster-manager/feature/library"
	"roster-manager/feature/roster"
	"roster-manager/feature/sanitize"

	"go.uber.org/zap"
)

// Installer copies new content into the engine tree and registers it:
// filesystem copy, roster script entry, and index refresh as one unit
// under the library's mutation lock. On any conflict it reports before
// touching the tree, so a declined overwrite leaves no trace.
type Installer struct {
	library *library.Service
	logger  *zap.Logger
}

// NewInstaller creates the installer over the library service.
func NewInstaller(lib *library.Service, logger *zap.Logger) *Installer {
	return &Installer{library: lib, logger: logger}
}

// Install installs one piece of content from sourceDir and returns its
// canonical (sanitized) id. With overwrite false an existing id is a
// conflict and nothing is copied or registered.
func (ins *Installer) Install(ctx context.Context, kind library.Kind, sourceDir string, overwrite bool) (string, error) {
	if !library.ValidKind(kind) {
		return "", apperr.Invalid("unknown content kind "+string(kind), nil)
	}

	ins.library.MutationLock().Lock()
	id, err := ins.installOne(ctx, kind, sourceDir, overwrite)
	ins.library.MutationLock().Unlock()
	if err != nil {
		return "", err
	}

	ins.refresh(ctx, kind)
	ins.logger.Info("Installed content",
		zap.String("kind", string(kind)), zap.String("id", id), zap.String("source", sourceDir))
	return id, nil
}

// InstallBatch installs several sources of the same kind, recording
// per-item outcomes. One bad archive never aborts the rest; the index is
// refreshed once at the end.
func (ins *Installer) InstallBatch(ctx context.Context, kind library.Kind, sourceDirs []string, overwrite bool) (*apperr.BatchResult, error) {
	if !library.ValidKind(kind) {
		return nil, apperr.Invalid("unknown content kind "+string(kind), nil)
	}

	res := &apperr.BatchResult{}
	ins.library.MutationLock().Lock()
	for _, src := range sourceDirs {
		if err := ctx.Err(); err != nil {
			ins.library.MutationLock().Unlock()
			return res, err
		}
		id, err := ins.installOne(ctx, kind, src, overwrite)
		if err != nil {
			res.Fail(filepath.Base(src), err)
			continue
		}
		res.Ok(id)
	}
	ins.library.MutationLock().Unlock()

	ins.refresh(ctx, kind)
	ins.logger.Info(res.Summary("installed"), zap.String("kind", string(kind)))
	return res, nil
}

// refresh rescans and repairs the index after an install. A repair
// failure is logged, not returned: the content is on disk and registered,
// and the next reconciliation pass converges the index.
func (ins *Installer) refresh(ctx context.Context, kind library.Kind) {
	if _, err := ins.library.Refresh(ctx, kind); err != nil {
		ins.logger.Warn("Post-install index refresh failed",
			zap.String("kind", string(kind)), zap.Error(err))
	}
}

func (ins *Installer) installOne(ctx context.Context, kind library.Kind, sourceDir string, overwrite bool) (string, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return "", apperr.InvalidPath(sourceDir, "install source not readable", err)
	}
	if !info.IsDir() {
		return "", apperr.InvalidPath(sourceDir, "install source must be a directory", nil)
	}

	switch kind {
	case library.KindStage:
		return ins.installStage(ctx, sourceDir, overwrite)
	case library.KindScreenpack:
		return ins.installScreenpack(sourceDir, overwrite)
	default:
		return ins.installCharacter(ctx, sourceDir, overwrite)
	}
}

// installCharacter copies the source folder to chars/<id> and adds a
// roster entry. The id is the sanitized source folder name.
func (ins *Installer) installCharacter(ctx context.Context, sourceDir string, overwrite bool) (string, error) {
	id := sanitize.Sanitize(filepath.Base(sourceDir))
	if id == "" {
		return "", apperr.InvalidPath(sourceDir, "source folder name sanitizes to nothing", nil)
	}
	if _, err := findDef(sourceDir); err != nil {
		return "", err
	}
	if err := ins.scriptConflict(roster.SectionCharacters, id, overwrite); err != nil {
		return "", err
	}

	dest := filepath.Join(ins.library.Config().Chars(), id)
	if _, err := os.Stat(dest); err == nil {
		if !overwrite {
			return "", apperr.Conflict(id, "character already installed")
		}
		if err := os.RemoveAll(dest); err != nil {
			return "", apperr.IO(dest, "could not replace existing character", err)
		}
	}

	if err := copyTree(sourceDir, dest); err != nil {
		return "", err
	}
	if err := ins.register(ctx, roster.SectionCharacters, id); err != nil {
		return "", err
	}
	return id, nil
}

// installStage copies the source's files flat into stages/, renaming the
// definition file to <id>.def. The id is the sanitized def file stem.
func (ins *Installer) installStage(ctx context.Context, sourceDir string, overwrite bool) (string, error) {
	defName, err := findDef(sourceDir)
	if err != nil {
		return "", err
	}
	id := sanitize.Sanitize(strings.TrimSuffix(defName, filepath.Ext(defName)))
	if id == "" {
		return "", apperr.InvalidPath(sourceDir, "definition file name sanitizes to nothing", nil)
	}

	stagesDir := ins.library.Config().Stages()
	destDef := filepath.Join(stagesDir, id+".def")
	if _, err := os.Stat(destDef); err == nil && !overwrite {
		return "", apperr.Conflict(id, "stage already installed")
	}
	if err := ins.scriptConflict(roster.SectionStages, id, overwrite); err != nil {
		return "", err
	}
	if err := os.MkdirAll(stagesDir, 0o755); err != nil {
		return "", apperr.IO(stagesDir, "could not create stages directory", err)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return "", apperr.IO(sourceDir, "could not read install source", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == defName {
			name = id + ".def"
		}
		if err := copyFile(filepath.Join(sourceDir, e.Name()), filepath.Join(stagesDir, name)); err != nil {
			return "", err
		}
	}

	if err := ins.register(ctx, roster.SectionStages, id); err != nil {
		return "", err
	}
	return id, nil
}

// installScreenpack copies the source folder to data/<id>. Screenpacks
// are referenced by engine configuration, not roster entries, so no
// script registration happens.
func (ins *Installer) installScreenpack(sourceDir string, overwrite bool) (string, error) {
	if _, err := os.Stat(filepath.Join(sourceDir, "system.def")); err != nil {
		return "", apperr.InvalidPath(sourceDir, "screenpack source has no system.def", err)
	}
	id := sanitize.Sanitize(filepath.Base(sourceDir))
	if id == "" {
		return "", apperr.InvalidPath(sourceDir, "source folder name sanitizes to nothing", nil)
	}

	dest := filepath.Join(ins.library.Config().Data(), id)
	if _, err := os.Stat(dest); err == nil {
		if !overwrite {
			return "", apperr.Conflict(id, "screenpack already installed")
		}
		if err := os.RemoveAll(dest); err != nil {
			return "", apperr.IO(dest, "could not replace existing screenpack", err)
		}
	}

	if err := copyTree(sourceDir, dest); err != nil {
		return "", err
	}
	ins.library.Invalidate()
	return id, nil
}

// scriptConflict reports a conflict when the section already lists an
// entry for id and overwrite was not requested. Runs before any copy, so
// a declined overwrite leaves both the tree and the script untouched.
// Caller holds the mutation lock.
func (ins *Installer) scriptConflict(section, id string, overwrite bool) error {
	if overwrite {
		return nil
	}
	script, err := ins.library.LoadScript()
	if err != nil {
		return err
	}
	if _, _, ok := script.FindIn(section, id); ok {
		return apperr.Conflict(id, "roster script already lists this id")
	}
	return nil
}

// register adds the canonical roster entry for id unless the section
// already has one (the overwrite path keeps the existing line, disabled
// state and all). Caller holds the mutation lock.
func (ins *Installer) register(ctx context.Context, section, id string) error {
	script, err := ins.library.LoadScript()
	if err != nil {
		return err
	}
	if _, _, ok := script.FindIn(section, id); ok {
		ins.library.Invalidate()
		return nil
	}
	return ins.library.MutateScriptLocked(ctx, func(s *roster.Script) error {
		return s.Add(section, &roster.Entry{ID: id, Row: -1, Col: -1}, -1)
	})
}

// findDef returns the name of the first .def file at the top of dir.
func findDef(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", apperr.IO(dir, "could not read install source", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".def") {
			return e.Name(), nil
		}
	}
	return "", apperr.InvalidPath(dir, "install source has no definition file", nil)
}

// copyTree copies the directory tree at src to dst.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return apperr.IO(path, "could not read install source", err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return apperr.IO(path, "could not resolve source path", err)
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return apperr.IO(target, "could not create directory", err)
			}
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return apperr.IO(src, "could not open source file", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return apperr.IO(dst, "could not create destination file", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return apperr.IO(dst, "could not copy file", err)
	}
	if err := out.Close(); err != nil {
		return apperr.IO(dst, "could not finish file", err)
	}
	return nil
}
