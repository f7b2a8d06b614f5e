package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLite(t *testing.T) {
	cfg := Config{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "library.db"),
	}

	db, err := Connect(cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.NoError(t, sqlDB.Ping())
	// Single writer: the pool must stay at one connection.
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestConnectDefaultsToSQLite(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "library.db")}

	db, err := Connect(cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.NoError(t, sqlDB.Ping())
}

func TestConnectUnknownDriver(t *testing.T) {
	_, err := Connect(Config{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}
