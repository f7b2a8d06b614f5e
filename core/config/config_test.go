package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ".", cfg.Library.Root)
	assert.Equal(t, "chars", cfg.Library.CharsDir)
	assert.Equal(t, filepath.ToSlash("data/select.def"), cfg.Library.SelectPath)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "library.db", cfg.Database.Path)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("LIBRARY_ROOT", "/games/mugen")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/games/mugen", cfg.Library.Root)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	env := "LIBRARY_ROOT=/from/dotenv\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644))

	// godotenv loads into the process environment; clean up after.
	t.Setenv("LIBRARY_ROOT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "/from/dotenv", cfg.Library.Root)
	assert.Equal(t, "debug", cfg.Log.Level)
}
