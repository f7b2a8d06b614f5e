package library

import "time"

// Kind distinguishes the three content types the engine consumes.
type Kind string

const (
	KindCharacter  Kind = "character"
	KindStage      Kind = "stage"
	KindScreenpack Kind = "screenpack"
)

// ValidKind reports whether k names a known content kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindCharacter, KindStage, KindScreenpack:
		return true
	}
	return false
}

// ContentItem is what a filesystem scan knows about one piece of content.
// Identity comes from the folder or file name; the definition file
// contributes display name, author, and asset references. Immutable after
// the scan except for user display-name overrides applied downstream.
type ContentItem struct {
	// ID is the stable id: the character folder name, the stage def file
	// stem, or the screenpack folder name.
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	// DisplayName is the declared name, falling back to the id.
	DisplayName string `json:"display_name"`
	Author      string `json:"author"`
	// Sprite, Sound, and Cmd are the declared asset references.
	Sprite string `json:"sprite,omitempty"`
	Sound  string `json:"sound,omitempty"`
	Cmd    string `json:"cmd,omitempty"`
	// Path is the item's folder (characters, screenpacks) or def file
	// (stages).
	Path string `json:"path"`
	// DefPath is the definition file actually read.
	DefPath string `json:"def_path,omitempty"`
	// ModTime is the definition file's last modification time.
	ModTime time.Time `json:"mod_time"`
	// Stage classification fields.
	CameraWidth int    `json:"camera_width,omitempty"`
	HasMusic    bool   `json:"has_music,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
	Version     string `json:"version,omitempty"`
	// ReadError is set when the definition file could not be read; the
	// item is still listed with best-effort defaults.
	ReadError string `json:"read_error,omitempty"`
}

// Valid reports whether the item's definition file was readable.
func (c *ContentItem) Valid() bool { return c.ReadError == "" }

// Record is the cached index projection of a ContentItem plus bookkeeping
// and lazy classification fields. The index is derived data: rebuildable
// at any time from a filesystem scan, never authoritative on conflict.
type Record struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"index" json:"name"`
	Author      string    `gorm:"index" json:"author"`
	Sprite      string    `json:"sprite,omitempty"`
	Sound       string    `json:"sound,omitempty"`
	Cmd         string    `json:"cmd,omitempty"`
	Path        string    `json:"path"`
	DefPath     string    `json:"def_path,omitempty"`
	FileModTime time.Time `json:"file_mod_time"`

	// Bookkeeping.
	InstalledAt time.Time `gorm:"autoCreateTime" json:"installed_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Classification, filled lazily by the user or future scrapers.
	SourceGame string `json:"source_game,omitempty"`
	Style      string `json:"style,omitempty"`
	Tags       string `json:"tags,omitempty"`

	// Scan-derived classification.
	Resolution  string `json:"resolution,omitempty"`
	CameraWidth int    `json:"camera_width,omitempty"`
	HasMusic    bool   `json:"has_music,omitempty"`
	Version     string `json:"version,omitempty"`

	// ReadError marks a degraded row recorded with best-effort defaults.
	ReadError string `json:"read_error,omitempty"`
}

// CharacterRecord, StageRecord, and ScreenpackRecord pin the shared Record
// shape to their own tables, keyed by the same stable id as ContentItem.
type CharacterRecord struct {
	Record `gorm:"embedded"`
}

func (CharacterRecord) TableName() string { return "characters" }

type StageRecord struct {
	Record `gorm:"embedded"`
}

func (StageRecord) TableName() string { return "stages" }

type ScreenpackRecord struct {
	Record `gorm:"embedded"`
}

func (ScreenpackRecord) TableName() string { return "screenpacks" }

// tableFor maps a content kind to its index table.
func tableFor(kind Kind) string {
	switch kind {
	case KindStage:
		return "stages"
	case KindScreenpack:
		return "screenpacks"
	default:
		return "characters"
	}
}

// RecordOf projects a scanned item into its index row. InstalledAt and
// the lazy classification fields are managed by the store, not the scan.
func RecordOf(item ContentItem) Record {
	name := item.DisplayName
	if name == "" {
		name = item.ID
	}
	author := item.Author
	if author == "" {
		author = "Unknown"
	}
	return Record{
		ID:          item.ID,
		Name:        name,
		Author:      author,
		Sprite:      item.Sprite,
		Sound:       item.Sound,
		Cmd:         item.Cmd,
		Path:        item.Path,
		DefPath:     item.DefPath,
		FileModTime: item.ModTime,
		Resolution:  item.Resolution,
		CameraWidth: item.CameraWidth,
		HasMusic:    item.HasMusic,
		Version:     item.Version,
		ReadError:   item.ReadError,
	}
}
