package roster

// LineKind tags the variant of a script line.
type LineKind string

const (
	// LineBlank is an empty or whitespace-only line.
	LineBlank LineKind = "blank"
	// LineComment is a ;-prefixed line that is not a disabled entry.
	LineComment LineKind = "comment"
	// LineSection is a [Section] header.
	LineSection LineKind = "section"
	// LineDirective is a key = value line outside the entry sections.
	LineDirective LineKind = "directive"
	// LineEntry is a roster entry, enabled or disabled.
	LineEntry LineKind = "entry"
	// LineUnknown is a line matching no known grammar. It is preserved
	// verbatim and re-emitted in place.
	LineUnknown LineKind = "unknown"
)

// Sections whose bare lines are roster entries. Everything else holds
// directives and free-form text.
const (
	SectionCharacters = "characters"
	SectionStages     = "extrastages"
)

// Param is one comma-separated entry parameter. Key is empty for
// positional parameters (e.g. the stage path in a character entry).
type Param struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// Entry is the parsed form of a roster entry line.
type Entry struct {
	// Token is the verbatim first field of the line.
	Token string `json:"token"`
	// ID is the stable content id the token resolves to: the character
	// folder name or the stage def file stem.
	ID string `json:"id"`
	// Sub is the optional sub-definition selector (alt .def inside the
	// character folder), empty when the token names the default def.
	Sub string `json:"sub,omitempty"`
	// Params are the remaining comma-separated parameters, in order.
	Params []Param `json:"params,omitempty"`
	// Row and Col carry the manual grid position, -1 when absent.
	Row int `json:"row"`
	Col int `json:"col"`
	// Random marks the randomselect placeholder.
	Random bool `json:"random,omitempty"`
	// Blank marks an explicit empty slot.
	Blank bool `json:"blank,omitempty"`
	// Disabled marks a comment-prefixed entry.
	Disabled bool `json:"disabled"`
}

// Key returns the match key for the entry: the id, plus the sub-selector
// when present. Placeholders key on their keyword.
func (e *Entry) Key() string {
	switch {
	case e.Random:
		return tokenRandom
	case e.Blank:
		return tokenBlank
	case e.Sub != "":
		return e.ID + "/" + e.Sub
	default:
		return e.ID
	}
}

// Line is one line of the roster script. Raw holds the exact original
// text (without the newline); rendering untouched lines re-emits Raw, so
// comments, spacing, and unknown directives survive round trips.
type Line struct {
	Kind LineKind `json:"kind"`
	Raw  string   `json:"raw"`
	// Section is the lowercase section this line belongs to ("" before
	// the first header). For LineSection it is the header's own name.
	Section string `json:"section,omitempty"`
	// Entry is set for LineEntry.
	Entry *Entry `json:"entry,omitempty"`
	// Key and Value are set for LineDirective.
	Key   string `json:"directive_key,omitempty"`
	Value string `json:"directive_value,omitempty"`
}

// Script is the ordered, comment-preserving model of a roster script.
type Script struct {
	Lines []Line `json:"lines"`
}

// EntryRef locates an entry within a script for reconciliation and
// reorder bookkeeping.
type EntryRef struct {
	// Index is the line index within the script.
	Index int `json:"index"`
	// Entry is the parsed entry at that line.
	Entry *Entry `json:"entry"`
}
