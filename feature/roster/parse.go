package roster

import (
	"path"
	"strconv"
	"strings"
	"unicode"

	"roster-manager/core/apperr"
)

const (
	tokenRandom = "randomselect"
	tokenBlank  = "blank"
)

// Parse builds the line model from script text. Lines matching no known
// grammar are kept as LineUnknown and re-emitted verbatim; only structural
// corruption (a section header that never closes) is an error, because a
// script that cannot be faithfully re-rendered must never be written back.
func Parse(text string) (*Script, error) {
	raws := strings.Split(text, "\n")
	script := &Script{Lines: make([]Line, 0, len(raws))}

	section := ""
	for i, raw := range raws {
		line, err := classify(raw, section)
		if err != nil {
			return nil, apperr.Invalid("unparseable roster script at line "+strconv.Itoa(i+1), err)
		}
		if line.Kind == LineSection {
			section = line.Section
		}
		script.Lines = append(script.Lines, line)
	}

	return script, nil
}

// Render is the exact inverse of Parse for untouched lines.
func (s *Script) Render() string {
	raws := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		raws[i] = l.Raw
	}
	return strings.Join(raws, "\n")
}

func classify(raw, section string) (Line, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))

	switch {
	case trimmed == "":
		return Line{Kind: LineBlank, Raw: raw, Section: section}, nil

	case strings.HasPrefix(trimmed, ";"):
		// Inside an entry section a comment whose body is a well-formed
		// entry is a disabled entry, not prose.
		if isEntrySection(section) {
			body := strings.TrimPrefix(trimmed, ";")
			if entry, ok := parseEntryBody(body, section); ok {
				entry.Disabled = true
				return Line{Kind: LineEntry, Raw: raw, Section: section, Entry: entry}, nil
			}
		}
		return Line{Kind: LineComment, Raw: raw, Section: section}, nil

	case strings.HasPrefix(trimmed, "["):
		end := strings.Index(trimmed, "]")
		if end < 0 {
			return Line{}, apperr.Invalid("section header is never closed: "+trimmed, nil)
		}
		name := strings.ToLower(strings.TrimSpace(trimmed[1:end]))
		return Line{Kind: LineSection, Raw: raw, Section: name}, nil

	case isEntrySection(section):
		if entry, ok := parseEntryBody(trimmed, section); ok {
			return Line{Kind: LineEntry, Raw: raw, Section: section, Entry: entry}, nil
		}
		return Line{Kind: LineUnknown, Raw: raw, Section: section}, nil

	case strings.Contains(trimmed, "="):
		eq := strings.Index(trimmed, "=")
		key := strings.TrimSpace(trimmed[:eq])
		value := strings.TrimSpace(trimmed[eq+1:])
		if key == "" {
			return Line{Kind: LineUnknown, Raw: raw, Section: section}, nil
		}
		return Line{Kind: LineDirective, Raw: raw, Section: section, Key: key, Value: value}, nil

	default:
		return Line{Kind: LineUnknown, Raw: raw, Section: section}, nil
	}
}

// isEntrySection reports whether bare lines in the section are roster
// entries. [Stages] is accepted as a synonym some screenpacks use.
func isEntrySection(section string) bool {
	return section == SectionCharacters || section == SectionStages || section == "stages"
}

// isStageSection reports whether entries in the section name stages.
func isStageSection(section string) bool {
	return section == SectionStages || section == "stages"
}

// parseEntryBody parses the content of an entry line (or the body of a
// candidate disabled entry). It is deliberately strict about the leading
// token so prose comments never masquerade as entries.
func parseEntryBody(body, section string) (*Entry, bool) {
	fields := strings.Split(body, ",")
	token := strings.TrimSpace(fields[0])
	if !validToken(token) {
		return nil, false
	}

	entry := &Entry{Token: token, Row: -1, Col: -1}

	switch strings.ToLower(token) {
	case tokenRandom:
		entry.Random = true
	case tokenBlank, "empty":
		entry.Blank = true
	default:
		id, sub := splitIdentity(token, section)
		if id == "" {
			return nil, false
		}
		entry.ID, entry.Sub = id, sub
	}

	for _, f := range fields[1:] {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if eq := strings.Index(f, "="); eq >= 0 {
			p := Param{
				Key:   strings.TrimSpace(f[:eq]),
				Value: strings.TrimSpace(f[eq+1:]),
			}
			entry.Params = append(entry.Params, p)
			switch strings.ToLower(p.Key) {
			case "row":
				if n, err := strconv.Atoi(p.Value); err == nil {
					entry.Row = n
				}
			case "col":
				if n, err := strconv.Atoi(p.Value); err == nil {
					entry.Col = n
				}
			}
			continue
		}
		entry.Params = append(entry.Params, Param{Value: f})
	}

	return entry, true
}

// validToken accepts folder names, def paths, and placeholder keywords.
// Whitespace or charset violations reject the token, which keeps ordinary
// comment text out of the entry grammar.
func validToken(token string) bool {
	if token == "" {
		return false
	}
	first := []rune(token)[0]
	if !unicode.IsLetter(first) && !unicode.IsDigit(first) && first != '_' {
		return false
	}
	for _, r := range token {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		case strings.ContainsRune("._-/\\()'&!", r):
		default:
			return false
		}
	}
	return true
}

// splitIdentity derives the stable content id (and optional sub-definition
// selector) from an entry token.
//
// Characters: "kfm" -> kfm; "kfm/kfm-alt.def" -> kfm + sub kfm-alt;
// a leading chars/ prefix is tolerated. Stages: the id is the def file
// stem, so "stages/Bifrost.def" -> Bifrost.
func splitIdentity(token, section string) (id, sub string) {
	p := strings.ReplaceAll(token, "\\", "/")

	if isStageSection(section) {
		return defStem(path.Base(p)), ""
	}

	parts := strings.Split(p, "/")
	if len(parts) > 1 && strings.EqualFold(parts[0], "chars") {
		parts = parts[1:]
	}
	if len(parts) == 0 || parts[0] == "" {
		return "", ""
	}

	id = defStem(parts[0])
	if len(parts) > 1 {
		if s := defStem(parts[len(parts)-1]); !strings.EqualFold(s, id) {
			sub = s
		}
	}
	return id, sub
}

// defStem strips a trailing .def extension.
func defStem(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".def") {
		return name[:len(name)-len(".def")]
	}
	return name
}
