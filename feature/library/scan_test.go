package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	cfg := newTestGameDir(t)
	writeCharacter(t, cfg, "kfm", "Kung Fu Man", "Elecbyte")
	writeBrokenCharacter(t, cfg, "busted")
	writeStage(t, cfg, "Bifrost", "Bifrost Bridge", -150, 150, "sound/bifrost.mp3")
	writeScreenpack(t, cfg, "bigmotif", "Big Motif")

	scan, err := Scan(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, scan.Items, 4)

	t.Run("character identity from def", func(t *testing.T) {
		item, ok := scan.Find(KindCharacter, "kfm")
		require.True(t, ok)
		assert.Equal(t, "Kung Fu Man", item.DisplayName)
		assert.Equal(t, "Elecbyte", item.Author)
		assert.Equal(t, "kfm.sff", item.Sprite)
		assert.True(t, item.Valid())
		assert.False(t, item.ModTime.IsZero())
	})

	t.Run("missing def degrades the item", func(t *testing.T) {
		item, ok := scan.Find(KindCharacter, "busted")
		require.True(t, ok)
		assert.False(t, item.Valid())
		assert.Equal(t, "busted", item.DisplayName)
	})

	t.Run("stage classification", func(t *testing.T) {
		item, ok := scan.Find(KindStage, "Bifrost")
		require.True(t, ok)
		assert.Equal(t, "Bifrost Bridge", item.DisplayName)
		assert.Equal(t, 300, item.CameraWidth)
		assert.True(t, item.HasMusic)
	})

	t.Run("screenpack needs system.def", func(t *testing.T) {
		item, ok := scan.Find(KindScreenpack, "bigmotif")
		require.True(t, ok)
		assert.Equal(t, "Big Motif", item.DisplayName)
	})
}

func TestScanDuplicates(t *testing.T) {
	cfg := newTestGameDir(t)
	writeCharacter(t, cfg, "Ryu", "Ryu", "Capcom")
	writeCharacter(t, cfg, "ryu", "Ryu", "Someone Else")

	scan, err := Scan(context.Background(), cfg)
	require.NoError(t, err)

	// One logical identity described once, both locations reported.
	require.Len(t, scan.Items, 1)
	paths := scan.Paths(KindCharacter, "ryu")
	require.Len(t, paths, 2)
	assert.Contains(t, paths, filepath.Join(cfg.Chars(), "Ryu"))
	assert.Contains(t, paths, filepath.Join(cfg.Chars(), "ryu"))
}

func TestScanMissingDirectories(t *testing.T) {
	cfg := newTestGameDir(t)
	require.NoError(t, os.RemoveAll(cfg.Chars()))
	require.NoError(t, os.RemoveAll(cfg.Stages()))

	scan, err := Scan(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, scan.Items)
}

func TestScanCancellation(t *testing.T) {
	cfg := newTestGameDir(t)
	writeCharacter(t, cfg, "kfm", "Kung Fu Man", "Elecbyte")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, cfg)
	require.Error(t, err)
}
