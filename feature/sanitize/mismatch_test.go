package sanitize

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFolder(t *testing.T, dir, folder, declared string) string {
	t.Helper()
	path := filepath.Join(dir, folder)
	require.NoError(t, os.MkdirAll(path, 0o755))
	def := fmt.Sprintf("[Info]\nname = %q\n", declared)
	require.NoError(t, os.WriteFile(filepath.Join(path, folder+".def"), []byte(def), 0o644))
	return path
}

func TestDetectMismatch(t *testing.T) {
	d := Detector{MinDeclaredLength: 3}
	dir := t.TempDir()

	tests := []struct {
		name     string
		folder   string
		declared string
		mismatch bool
	}{
		{"declared name wins", "chr001", "Evil Ryu", true},
		{"matching name is fine", "kfm", "KFM", false},
		{"short declared name distrusted", "chr002", "EX", false},
		{"empty declared name distrusted", "chr003", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folder := writeFolder(t, dir, tt.folder, tt.declared)
			declared, mismatch, err := d.DetectMismatch(folder)
			require.NoError(t, err)
			assert.Equal(t, tt.mismatch, mismatch)
			if tt.mismatch {
				assert.Equal(t, Sanitize(tt.declared), declared)
			}
		})
	}

	t.Run("no def file", func(t *testing.T) {
		empty := filepath.Join(dir, "empty")
		require.NoError(t, os.MkdirAll(empty, 0o755))
		_, _, err := d.DetectMismatch(empty)
		require.Error(t, err)
	})
}

func TestSanitizeAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Evil Ryu"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "kfm"), 0o755))

	renames, result := SanitizeAll(dir)
	require.Len(t, renames, 1)
	assert.Equal(t, "Evil Ryu", renames[0].Old)
	assert.Equal(t, "Evil_Ryu", renames[0].New)
	assert.False(t, result.HasFailures())

	_, err := os.Stat(filepath.Join(dir, "Evil_Ryu"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "kfm"))
	assert.NoError(t, err)
}

func TestSanitizeAllConflict(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Evil Ryu"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Evil_Ryu"), 0o755))

	renames, result := SanitizeAll(dir)
	assert.Empty(t, renames)
	require.True(t, result.HasFailures())
	assert.Equal(t, "Evil Ryu", result.Failed[0].ID)

	// The original stays in place when the target name is taken.
	_, err := os.Stat(filepath.Join(dir, "Evil Ryu"))
	assert.NoError(t, err)
}

func TestFixAllMismatched(t *testing.T) {
	d := Detector{MinDeclaredLength: 3}
	dir := t.TempDir()
	writeFolder(t, dir, "chr001", "Evil Ryu")
	writeFolder(t, dir, "kfm", "KFM")

	renames, result := d.FixAllMismatched(dir)
	require.Len(t, renames, 1)
	assert.Equal(t, "chr001", renames[0].Old)
	assert.Equal(t, "Evil_Ryu", renames[0].New)

	// Folders whose def cannot be read fail individually, not the batch.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nodef"), 0o755))
	renames, result = d.FixAllMismatched(dir)
	assert.Empty(t, renames)
	require.True(t, result.HasFailures())
	assert.Equal(t, "nodef", result.Failed[0].ID)
}
