package library

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"roster-manager/core/gamedir"
	"roster-manager/core/scriptio"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestStore opens a throwaway sqlite index.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "index.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

// newTestGameDir lays out an empty engine tree and returns its config.
func newTestGameDir(t *testing.T) gamedir.Config {
	t.Helper()
	root := t.TempDir()
	cfg := gamedir.Config{
		Root:              root,
		CharsDir:          "chars",
		StagesDir:         "stages",
		DataDir:           "data",
		SelectPath:        filepath.Join("data", "select.def"),
		BackupKeep:        5,
		MinDeclaredLength: 3,
	}
	require.NoError(t, os.MkdirAll(cfg.Chars(), 0o755))
	require.NoError(t, os.MkdirAll(cfg.Stages(), 0o755))
	require.NoError(t, os.MkdirAll(cfg.Data(), 0o755))
	return cfg
}

// newTestService wires a service over a temp tree and sqlite index.
func newTestService(t *testing.T) (*Service, gamedir.Config) {
	t.Helper()
	cfg := newTestGameDir(t)
	store := newTestStore(t)
	saver := scriptio.NewSaver(cfg.BackupKeep, zap.NewNop(), nil, "")
	return NewService(cfg, store, saver, zap.NewNop()), cfg
}

func writeCharacter(t *testing.T, cfg gamedir.Config, folder, name, author string) {
	t.Helper()
	dir := filepath.Join(cfg.Chars(), folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	def := fmt.Sprintf("[Info]\nname = %q\nauthor = %q\n\n[Files]\nsprite = %s.sff\ncmd = %s.cmd\n",
		name, author, folder, folder)
	require.NoError(t, os.WriteFile(filepath.Join(dir, folder+".def"), []byte(def), 0o644))
}

// writeBrokenCharacter creates a character folder with no definition file.
func writeBrokenCharacter(t *testing.T, cfg gamedir.Config, folder string) {
	t.Helper()
	dir := filepath.Join(cfg.Chars(), folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, folder+".sff"), []byte("sprites"), 0o644))
}

func writeStage(t *testing.T, cfg gamedir.Config, id, name string, boundLeft, boundRight int, bgm string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(cfg.Stages(), 0o755))
	def := fmt.Sprintf("[Info]\nname = %q\n\n[Camera]\nboundleft = %d\nboundright = %d\n",
		name, boundLeft, boundRight)
	if bgm != "" {
		def += fmt.Sprintf("\n[Music]\nbgmusic = %s\n", bgm)
	}
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Stages(), id+".def"), []byte(def), 0o644))
}

func writeScreenpack(t *testing.T, cfg gamedir.Config, folder, name string) {
	t.Helper()
	dir := filepath.Join(cfg.Data(), folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	def := fmt.Sprintf("[Info]\nname = %q\n", name)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.def"), []byte(def), 0o644))
}

func writeSelect(t *testing.T, cfg gamedir.Config, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Select()), 0o755))
	require.NoError(t, os.WriteFile(cfg.Select(), []byte(text), 0o644))
}

func readSelect(t *testing.T, cfg gamedir.Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.Select())
	require.NoError(t, err)
	return string(data)
}
