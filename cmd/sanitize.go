package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"roster-manager/core/apperr"
	"roster-manager/feature/sanitize"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fixMismatched  bool
	dryRunSanitize bool
)

// sanitizeCmd cleans up content folder names under chars/.
var sanitizeCmd = &cobra.Command{
	Use:   "sanitize",
	Short: "Rename character folders with problematic names",
	Long: `Renames character folders whose names carry whitespace, unsafe
characters, or underscore runs to their sanitized form.

With --fix-mismatched, folders are instead renamed to the name declared
in their definition file, when the declared name is long enough to be
trusted and differs from the folder name.

Renames change content ids, so roster entries pointing at the old name
will show as missing afterwards; run 'status' to review them.

Examples:
  # Preview what would be renamed
  sanitize --dry-run

  # Sanitize problematic folder names
  sanitize

  # Rename folders to their declared names
  sanitize --fix-mismatched`,
	RunE: runSanitize,
}

func init() {
	sanitizeCmd.Flags().BoolVar(&fixMismatched, "fix-mismatched", false, "Rename folders to the name declared in their definition file")
	sanitizeCmd.Flags().BoolVar(&dryRunSanitize, "dry-run", false, "Report what would be renamed without renaming")

	RootCmd.AddCommand(sanitizeCmd)
}

func runSanitize(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	l := a.logger
	dir := a.cfg.Library.Chars()

	if dryRunSanitize {
		return previewRenames(l, dir, a.cfg.Library.MinDeclaredLength)
	}

	var renames []sanitize.Rename
	var result *apperr.BatchResult
	if fixMismatched {
		d := sanitize.Detector{MinDeclaredLength: a.cfg.Library.MinDeclaredLength}
		renames, result = d.FixAllMismatched(dir)
	} else {
		renames, result = sanitize.SanitizeAll(dir)
	}

	for _, r := range renames {
		l.Info("Renamed", zap.String("old", r.Old), zap.String("new", r.New))
	}
	for _, f := range result.Failed {
		l.Warn("Skipped", zap.String("id", f.ID), zap.String("reason", f.Reason))
	}
	l.Info(result.Summary("renamed"))

	if len(renames) > 0 {
		// Renames change ids, so the index and snapshots are now stale.
		a.service.Invalidate()
		if err := a.service.ReindexAll(context.Background()); err != nil {
			return fmt.Errorf("post-rename reindex failed: %w", err)
		}
		l.Info("Roster entries for renamed folders may now be missing; run 'status' to review")
	}
	return nil
}

// previewRenames reports what a real run would rename, without touching
// the filesystem.
func previewRenames(l *zap.Logger, dir string, minDeclared int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", dir, err)
	}

	count := 0
	d := sanitize.Detector{MinDeclaredLength: minDeclared}
	for _, e := range entries {
		name := e.Name()
		if fixMismatched {
			if !e.IsDir() {
				continue
			}
			declared, mismatch, err := d.DetectMismatch(filepath.Join(dir, name))
			if err != nil || !mismatch {
				continue
			}
			l.Info("Would rename", zap.String("old", name), zap.String("new", declared))
			count++
			continue
		}
		if !sanitize.NeedsSanitization(name) {
			continue
		}
		l.Info("Would rename", zap.String("old", name), zap.String("new", sanitize.Sanitize(name)))
		count++
	}
	l.Info("Dry-run complete", zap.Int("renames", count))
	return nil
}
