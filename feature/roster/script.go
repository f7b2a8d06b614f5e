package roster

import (
	"strconv"
	"strings"

	"roster-manager/core/apperr"
)

// Entries returns every roster entry (enabled and disabled) in the given
// section, in script order.
func (s *Script) Entries(section string) []EntryRef {
	var refs []EntryRef
	for i := range s.Lines {
		l := &s.Lines[i]
		if l.Kind == LineEntry && l.Section == section {
			refs = append(refs, EntryRef{Index: i, Entry: l.Entry})
		}
	}
	return refs
}

// AllEntries returns every roster entry in the script, in script order.
func (s *Script) AllEntries() []EntryRef {
	var refs []EntryRef
	for i := range s.Lines {
		l := &s.Lines[i]
		if l.Kind == LineEntry {
			refs = append(refs, EntryRef{Index: i, Entry: l.Entry})
		}
	}
	return refs
}

// Find locates the entry matching key (id, id/sub, or the verbatim line
// token). Matching is case-insensitive; a key falls back to the entry's
// token and then to the first entry with that id when no exact key match
// exists. When a character and a stage share an id, Find returns whichever
// comes first; use FindIn to target one section.
func (s *Script) Find(key string) (int, *Line, bool) {
	return s.find("", key)
}

// FindIn is Find restricted to one section, for callers that know the
// entry's kind.
func (s *Script) FindIn(section, key string) (int, *Line, bool) {
	return s.find(section, key)
}

func (s *Script) find(section, key string) (int, *Line, bool) {
	match := func(field func(*Entry) string) (int, *Line, bool) {
		for i := range s.Lines {
			l := &s.Lines[i]
			if l.Kind != LineEntry || (section != "" && l.Section != section) {
				continue
			}
			if strings.EqualFold(field(l.Entry), key) {
				return i, l, true
			}
		}
		return 0, nil, false
	}
	if i, l, ok := match(func(e *Entry) string { return e.Key() }); ok {
		return i, l, true
	}
	if i, l, ok := match(func(e *Entry) string { return e.Token }); ok {
		return i, l, true
	}
	return match(func(e *Entry) string { return e.ID })
}

// Disable comments out the entry's line, preserving its content byte for
// byte behind the marker. Disabling an already-disabled entry is a no-op.
func (s *Script) Disable(key string) error {
	return s.DisableIn("", key)
}

// DisableIn is Disable restricted to one section.
func (s *Script) DisableIn(section, key string) error {
	_, line, ok := s.find(section, key)
	if !ok {
		return apperr.NotFound(key, "roster entry not found")
	}
	if line.Entry.Disabled {
		return nil
	}
	line.Raw = ";" + line.Raw
	line.Entry.Disabled = true
	return nil
}

// Enable reverses Disable exactly: the first comment marker is removed and
// every other byte of the line is kept. Enabling an enabled entry is a no-op.
func (s *Script) Enable(key string) error {
	return s.EnableIn("", key)
}

// EnableIn is Enable restricted to one section.
func (s *Script) EnableIn(section, key string) error {
	_, line, ok := s.find(section, key)
	if !ok {
		return apperr.NotFound(key, "roster entry not found")
	}
	if !line.Entry.Disabled {
		return nil
	}
	if idx := strings.Index(line.Raw, ";"); idx >= 0 {
		line.Raw = line.Raw[:idx] + line.Raw[idx+1:]
	}
	line.Entry.Disabled = false
	return nil
}

// Remove deletes the entry's line outright. Used only when the user
// removes an item from the library; plain deactivation goes through
// Disable so the engine-visible text survives.
func (s *Script) Remove(key string) error {
	return s.RemoveIn("", key)
}

// RemoveIn is Remove restricted to one section.
func (s *Script) RemoveIn(section, key string) error {
	idx, _, ok := s.find(section, key)
	if !ok {
		return apperr.NotFound(key, "roster entry not found")
	}
	s.Lines = append(s.Lines[:idx], s.Lines[idx+1:]...)
	return nil
}

// Add inserts a new entry into the section using the canonical line
// format. at is the position among the section's entries; negative
// appends. A duplicate key within the section is a conflict; the same id
// in the other section is a different item.
func (s *Script) Add(section string, e *Entry, at int) error {
	if _, _, ok := s.find(section, e.Key()); ok {
		return apperr.Conflict(e.Key(), "roster entry already exists")
	}

	raw := FormatEntry(e, section)
	line := Line{Kind: LineEntry, Raw: raw, Section: section, Entry: e}

	refs := s.Entries(section)
	var insertAt int
	switch {
	case at >= 0 && at < len(refs):
		insertAt = refs[at].Index
	case len(refs) > 0:
		insertAt = refs[len(refs)-1].Index + 1
	default:
		// Section exists but holds no entries yet: insert right after the
		// header. A missing section is appended at the end of the script.
		insertAt = -1
		for i := range s.Lines {
			if s.Lines[i].Kind == LineSection && s.Lines[i].Section == section {
				insertAt = i + 1
				break
			}
		}
		if insertAt < 0 {
			insertAt = s.appendSection(section) + 1
		}
	}

	s.Lines = append(s.Lines, Line{})
	copy(s.Lines[insertAt+1:], s.Lines[insertAt:])
	s.Lines[insertAt] = line
	return nil
}

// appendSection adds a new [Section] header at the end of the script,
// before a trailing final-newline artifact if one exists. It returns the
// header's line index.
func (s *Script) appendSection(section string) int {
	header := Line{Kind: LineSection, Raw: "[" + headerName(section) + "]", Section: section}
	n := len(s.Lines)
	if n > 0 && s.Lines[n-1].Kind == LineBlank && s.Lines[n-1].Raw == "" {
		tail := s.Lines[n-1]
		s.Lines = append(s.Lines[:n-1], Line{Kind: LineBlank, Raw: "", Section: ""}, header, tail)
		return n
	}
	s.Lines = append(s.Lines, header)
	return len(s.Lines) - 1
}

func headerName(section string) string {
	switch section {
	case SectionCharacters:
		return "Characters"
	case SectionStages:
		return "ExtraStages"
	default:
		return section
	}
}

// Reorder rewrites the section's entry lines to match the supplied key
// order. Each entry keeps its own bytes (comment marker, parameters, grid
// annotation) and every non-entry line keeps its position. The keys must
// be exactly a permutation of the section's current entries.
func (s *Script) Reorder(section string, keys []string) error {
	refs := s.Entries(section)
	if len(keys) != len(refs) {
		return apperr.Invalid("reorder must list every entry exactly once: have "+
			strconv.Itoa(len(refs))+" entries, got "+strconv.Itoa(len(keys)), nil)
	}

	remaining := make(map[string][]int, len(refs))
	for i, ref := range refs {
		k := strings.ToLower(ref.Entry.Key())
		remaining[k] = append(remaining[k], i)
	}

	ordered := make([]Line, 0, len(refs))
	for _, key := range keys {
		k := strings.ToLower(key)
		idxs, ok := remaining[k]
		if !ok || len(idxs) == 0 {
			return apperr.NotFound(key, "roster entry not found in section")
		}
		ordered = append(ordered, s.Lines[refs[idxs[0]].Index])
		remaining[k] = idxs[1:]
	}

	for i, ref := range refs {
		s.Lines[ref.Index] = ordered[i]
	}
	return nil
}

// SetDirective sets key = value inside the section, rewriting the existing
// directive line or inserting a new one after the header. The section is
// created when absent.
func (s *Script) SetDirective(section, key, value string) {
	raw := key + " = " + value
	headerAt := -1
	for i := range s.Lines {
		l := &s.Lines[i]
		if l.Kind == LineSection && l.Section == section {
			headerAt = i
			continue
		}
		if l.Kind == LineDirective && l.Section == section && strings.EqualFold(l.Key, key) {
			l.Raw = raw
			l.Value = value
			return
		}
	}

	if headerAt < 0 {
		headerAt = s.appendSection(section)
	}

	line := Line{Kind: LineDirective, Raw: raw, Section: section, Key: key, Value: value}
	s.Lines = append(s.Lines, Line{})
	copy(s.Lines[headerAt+2:], s.Lines[headerAt+1:])
	s.Lines[headerAt+1] = line
}

// Directive returns the value of key inside the section.
func (s *Script) Directive(section, key string) (string, bool) {
	for i := range s.Lines {
		l := &s.Lines[i]
		if l.Kind == LineDirective && l.Section == section && strings.EqualFold(l.Key, key) {
			return l.Value, true
		}
	}
	return "", false
}

// FormatEntry renders the canonical line text for a new entry.
func FormatEntry(e *Entry, section string) string {
	token := e.Token
	if token == "" {
		switch {
		case e.Random:
			token = tokenRandom
		case e.Blank:
			token = tokenBlank
		case isStageSection(section):
			token = "stages/" + e.ID + ".def"
		case e.Sub != "":
			token = e.ID + "/" + e.Sub + ".def"
		default:
			token = e.ID
		}
	}

	fields := []string{token}
	hasRow, hasCol := false, false
	for _, p := range e.Params {
		switch strings.ToLower(p.Key) {
		case "row":
			hasRow = true
		case "col":
			hasCol = true
		}
		if p.Key == "" {
			fields = append(fields, p.Value)
		} else {
			fields = append(fields, p.Key+"="+p.Value)
		}
	}
	if e.Row >= 0 && !hasRow {
		fields = append(fields, "row="+strconv.Itoa(e.Row))
	}
	if e.Col >= 0 && !hasCol {
		fields = append(fields, "col="+strconv.Itoa(e.Col))
	}
	return strings.Join(fields, ", ")
}
