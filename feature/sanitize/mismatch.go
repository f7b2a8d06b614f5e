package sanitize

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"roster-manager/core/apperr"
	"roster-manager/feature/deffile"
)

// Detector decides when a declared name read from a definition file should
// be preferred over the folder name.
type Detector struct {
	// MinDeclaredLength is the minimum rune count a declared name needs
	// before it can win over the folder name. Short declared names are
	// too often abbreviations or placeholders; the threshold is exposed
	// in config because short legitimate names do exist.
	MinDeclaredLength int
}

// Rename records one (old, new) pair produced by a batch operation.
type Rename struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// DetectMismatch reads the declared identity from the folder's definition
// file and reports the name the folder should carry instead, when the
// declared name passes the length/validity heuristic and differs from the
// folder name.
func (d Detector) DetectMismatch(folder string) (declared string, mismatch bool, err error) {
	base := filepath.Base(folder)

	def, err := loadFolderDef(folder, base)
	if err != nil {
		return "", false, err
	}

	declared = Sanitize(def.Name)
	if declared == "" || utf8.RuneCountInString(declared) < d.MinDeclaredLength {
		return "", false, nil
	}
	if strings.EqualFold(declared, base) {
		return declared, false, nil
	}
	return declared, true, nil
}

// loadFolderDef finds the folder's definition file: <folder>/<base>.def
// first, otherwise the first .def inside.
func loadFolderDef(folder, base string) (*deffile.Def, error) {
	canonical := filepath.Join(folder, base+".def")
	if _, err := os.Stat(canonical); err == nil {
		return deffile.Load(canonical)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, apperr.IO(folder, "could not read content folder", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".def") {
			return deffile.Load(filepath.Join(folder, e.Name()))
		}
	}
	return nil, apperr.NotFound(base, "no definition file in folder")
}

// SanitizeAll renames every entry in dir whose name needs sanitization.
// Failures are collected per item, never fatal to the batch.
func SanitizeAll(dir string) ([]Rename, *apperr.BatchResult) {
	var renames []Rename
	result := &apperr.BatchResult{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Fail(dir, apperr.IO(dir, "could not read directory", err))
		return nil, result
	}

	for _, e := range entries {
		name := e.Name()
		if !NeedsSanitization(name) {
			continue
		}
		clean := Sanitize(name)
		if clean == "" {
			result.Fail(name, apperr.Invalid("name sanitizes to nothing", nil))
			continue
		}
		if err := renameEntry(dir, name, clean); err != nil {
			result.Fail(name, err)
			continue
		}
		renames = append(renames, Rename{Old: name, New: clean})
		result.Ok(name)
	}
	return renames, result
}

// FixAllMismatched renames every character folder under dir to the name
// declared in its definition file, per the Detector heuristic.
func (d Detector) FixAllMismatched(dir string) ([]Rename, *apperr.BatchResult) {
	var renames []Rename
	result := &apperr.BatchResult{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Fail(dir, apperr.IO(dir, "could not read directory", err))
		return nil, result
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		declared, mismatch, err := d.DetectMismatch(filepath.Join(dir, name))
		if err != nil {
			result.Fail(name, err)
			continue
		}
		if !mismatch {
			continue
		}
		if err := renameEntry(dir, name, declared); err != nil {
			result.Fail(name, err)
			continue
		}
		renames = append(renames, Rename{Old: name, New: declared})
		result.Ok(name)
	}
	return renames, result
}

func renameEntry(dir, from, to string) error {
	target := filepath.Join(dir, to)
	if _, err := os.Stat(target); err == nil {
		return apperr.Conflict(to, "target name already exists")
	}
	if err := os.Rename(filepath.Join(dir, from), target); err != nil {
		return apperr.IO(filepath.Join(dir, from), "could not rename", err)
	}
	return nil
}
