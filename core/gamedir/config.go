package gamedir

import "path/filepath"

// Config describes the engine directory tree the manager operates on.
// The engine owns this layout; the manager only reads and edits it.
type Config struct {
	// Root is the engine working directory.
	Root string `mapstructure:"root" default:"."`
	// CharsDir is the character folder directory, relative to Root.
	CharsDir string `mapstructure:"chars_dir" default:"chars"`
	// StagesDir is the stage directory, relative to Root.
	StagesDir string `mapstructure:"stages_dir" default:"stages"`
	// DataDir is the engine data directory holding screenpacks, relative
	// to Root.
	DataDir string `mapstructure:"data_dir" default:"data"`
	// SelectPath is the roster script path, relative to Root.
	SelectPath string `mapstructure:"select_path" default:"data/select.def"`
	// BackupKeep is how many roster script backups to retain.
	BackupKeep int `mapstructure:"backup_keep" default:"20"`
	// MinDeclaredLength is the minimum rune length a declared name read
	// from a definition file must have before it is preferred over the
	// folder name. Tunable because short legitimate names exist.
	MinDeclaredLength int `mapstructure:"min_declared_length" default:"3"`
}

// Chars returns the absolute character directory path.
func (c Config) Chars() string { return filepath.Join(c.Root, c.CharsDir) }

// Stages returns the absolute stage directory path.
func (c Config) Stages() string { return filepath.Join(c.Root, c.StagesDir) }

// Data returns the absolute data directory path.
func (c Config) Data() string { return filepath.Join(c.Root, c.DataDir) }

// Select returns the absolute roster script path.
func (c Config) Select() string { return filepath.Join(c.Root, c.SelectPath) }
