package deffile

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"roster-manager/core/apperr"
)

// Def holds the handful of definition-file fields the manager needs for
// identity and status. Game-logic fields are ignored on purpose.
type Def struct {
	// Path is where the def was read from, when loaded from disk.
	Path string `json:"path,omitempty"`

	// Info section.
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Author      string `json:"author,omitempty"`
	VersionDate string `json:"version_date,omitempty"`
	Localcoord  string `json:"localcoord,omitempty"`

	// Files section (characters).
	Sprite string `json:"sprite,omitempty"`
	Sound  string `json:"sound,omitempty"`
	Cmd    string `json:"cmd,omitempty"`

	// Camera section (stages).
	BoundLeft  int `json:"bound_left,omitempty"`
	BoundRight int `json:"bound_right,omitempty"`

	// Music section (stages).
	BGMusic string `json:"bgmusic,omitempty"`
}

// CameraWidth is the horizontal camera range, a stage's rough size class.
func (d *Def) CameraWidth() int {
	return d.BoundRight - d.BoundLeft
}

// HasMusic reports whether the stage declares background music.
func (d *Def) HasMusic() bool { return d.BGMusic != "" }

// Resolution returns the declared localcoord, e.g. "320,240".
func (d *Def) Resolution() string { return d.Localcoord }

// Load reads and parses a definition file.
func Load(path string) (*Def, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.InvalidPath(path, "could not read definition file", err)
	}
	defer f.Close()

	def, err := Parse(f)
	if err != nil {
		return nil, apperr.InvalidPath(path, "could not parse definition file", err)
	}
	def.Path = path
	return def, nil
}

// Parse reads a definition file: INI-style [Section] headers and
// key = value pairs, ; comments, quoted string values. Unknown sections
// and keys are skipped, never errors; the engine's own def files carry
// plenty the manager does not care about.
func Parse(r io.Reader) (*Def, error) {
	def := &Def{}
	section := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if end := strings.Index(line, "]"); end > 0 {
				section = strings.ToLower(strings.TrimSpace(line[1:end]))
			}
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		value := cleanValue(line[eq+1:])

		switch section {
		case "info":
			switch key {
			case "name":
				def.Name = value
			case "displayname":
				def.DisplayName = value
			case "author":
				def.Author = value
			case "versiondate":
				def.VersionDate = value
			case "localcoord":
				def.Localcoord = value
			}
		case "files":
			switch key {
			case "sprite":
				def.Sprite = value
			case "sound":
				def.Sound = value
			case "cmd":
				def.Cmd = value
			}
		case "camera":
			switch key {
			case "boundleft":
				def.BoundLeft, _ = strconv.Atoi(value)
			case "boundright":
				def.BoundRight, _ = strconv.Atoi(value)
			}
		case "music":
			if key == "bgmusic" {
				def.BGMusic = value
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return def, nil
}

// cleanValue trims whitespace, strips a trailing ; comment, and unquotes.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, `"`) {
		if end := strings.Index(v[1:], `"`); end >= 0 {
			return v[1 : end+1]
		}
		return strings.TrimPrefix(v, `"`)
	}
	if idx := strings.Index(v, ";"); idx >= 0 {
		v = strings.TrimSpace(v[:idx])
	}
	return v
}
