package roster

import (
	"strings"
	"testing"

	"roster-manager/core/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) *Script {
	t.Helper()
	script, err := Parse(text)
	require.NoError(t, err)
	return script
}

func TestDisableEnable(t *testing.T) {
	script := mustParse(t, sampleScript)

	require.NoError(t, script.Disable("kfm"))
	assert.Contains(t, script.Render(), ";kfm, stages/kfm.def")

	// Idempotent.
	require.NoError(t, script.Disable("kfm"))

	// Enable is the exact inverse: the original bytes come back.
	require.NoError(t, script.Enable("kfm"))
	assert.Equal(t, sampleScript, script.Render())
	require.NoError(t, script.Enable("kfm"))
	assert.Equal(t, sampleScript, script.Render())
}

func TestDisableStageInPlace(t *testing.T) {
	script := mustParse(t, sampleScript)

	require.NoError(t, script.Disable("Bifrost"))

	// Already disabled: render unchanged.
	assert.Equal(t, sampleScript, script.Render())

	require.NoError(t, script.Enable("Bifrost"))
	assert.Contains(t, script.Render(), "\nstages/Bifrost.def\n")

	require.NoError(t, script.Disable("Bifrost"))
	// The entry is commented in place, not moved or rewritten.
	assert.Equal(t, sampleScript, script.Render())
}

func TestDisableMissingEntry(t *testing.T) {
	script := mustParse(t, sampleScript)

	err := script.Disable("DoesNotExist")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRemoveKeepsOtherLines(t *testing.T) {
	script := mustParse(t, sampleScript)

	require.NoError(t, script.Remove("gouki"))

	want := strings.Replace(sampleScript, "chars/gouki\n", "", 1)
	assert.Equal(t, want, script.Render())

	err := script.Remove("gouki")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestFind(t *testing.T) {
	script := mustParse(t, sampleScript)

	// Exact key match, case-insensitive.
	_, line, ok := script.Find("SUAVE/SUAVE-ALT")
	require.True(t, ok)
	assert.Equal(t, "suave", line.Entry.ID)

	// Id-only key falls back to the first entry with that id.
	_, line, ok = script.Find("suave")
	require.True(t, ok)
	assert.Equal(t, "suave-alt", line.Entry.Sub)

	_, _, ok = script.Find("nobody")
	assert.False(t, ok)
}

func TestFindSharedID(t *testing.T) {
	script := mustParse(t, "[Characters]\nkfm\n\n[ExtraStages]\nstages/kfm.def\n")

	// The bare key prefers the first match in script order.
	_, line, ok := script.Find("kfm")
	require.True(t, ok)
	assert.Equal(t, SectionCharacters, line.Section)

	// The verbatim token reaches the stage without section knowledge.
	_, line, ok = script.Find("stages/kfm.def")
	require.True(t, ok)
	assert.Equal(t, SectionStages, line.Section)

	// Section-scoped lookups target each twin directly.
	_, line, ok = script.FindIn(SectionStages, "kfm")
	require.True(t, ok)
	assert.Equal(t, SectionStages, line.Section)

	_, line, ok = script.FindIn(SectionCharacters, "kfm")
	require.True(t, ok)
	assert.Equal(t, SectionCharacters, line.Section)

	_, _, ok = script.FindIn(SectionStages, "nobody")
	assert.False(t, ok)
}

func TestMutateInSection(t *testing.T) {
	text := "[Characters]\nkfm\n\n[ExtraStages]\nstages/kfm.def\n"
	script := mustParse(t, text)

	require.NoError(t, script.DisableIn(SectionStages, "kfm"))
	assert.Equal(t, "[Characters]\nkfm\n\n[ExtraStages]\n;stages/kfm.def\n", script.Render())

	require.NoError(t, script.EnableIn(SectionStages, "kfm"))
	assert.Equal(t, text, script.Render())

	require.NoError(t, script.RemoveIn(SectionCharacters, "kfm"))
	assert.Equal(t, "[Characters]\n\n[ExtraStages]\nstages/kfm.def\n", script.Render())

	err := script.DisableIn(SectionCharacters, "kfm")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestAdd(t *testing.T) {
	script := mustParse(t, sampleScript)

	t.Run("append character", func(t *testing.T) {
		require.NoError(t, script.Add(SectionCharacters, &Entry{ID: "newguy", Row: -1, Col: -1}, -1))
		entries := script.Entries(SectionCharacters)
		assert.Equal(t, "newguy", entries[len(entries)-1].Entry.ID)
		assert.Contains(t, script.Render(), "\nnewguy\n")
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		err := script.Add(SectionCharacters, &Entry{ID: "kfm", Row: -1, Col: -1}, -1)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("same id in the other section is a different item", func(t *testing.T) {
		s := mustParse(t, "[Characters]\nkfm\n\n[ExtraStages]\n")
		require.NoError(t, s.Add(SectionStages, &Entry{ID: "kfm", Row: -1, Col: -1}, -1))
		assert.Contains(t, s.Render(), "stages/kfm.def")
	})

	t.Run("stage entry uses canonical token", func(t *testing.T) {
		require.NoError(t, script.Add(SectionStages, &Entry{ID: "Bifrost2", Row: -1, Col: -1}, -1))
		assert.Contains(t, script.Render(), "stages/Bifrost2.def")
	})

	t.Run("insert at position", func(t *testing.T) {
		require.NoError(t, script.Add(SectionCharacters, &Entry{ID: "first", Row: -1, Col: -1}, 0))
		entries := script.Entries(SectionCharacters)
		assert.Equal(t, "first", entries[0].Entry.ID)
	})

	t.Run("missing section is created", func(t *testing.T) {
		fresh := mustParse(t, "; empty script\n")
		require.NoError(t, fresh.Add(SectionCharacters, &Entry{ID: "kfm", Row: -1, Col: -1}, -1))
		out := fresh.Render()
		assert.Contains(t, out, "[Characters]\nkfm")
		assert.True(t, strings.HasSuffix(out, "\n"))

		entries := fresh.Entries(SectionCharacters)
		require.Len(t, entries, 1)
	})
}

func TestFormatEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *Entry
		section string
		want    string
	}{
		{"plain character", &Entry{ID: "kfm", Row: -1, Col: -1}, SectionCharacters, "kfm"},
		{"sub definition", &Entry{ID: "kfm", Sub: "kfm-alt", Row: -1, Col: -1}, SectionCharacters, "kfm/kfm-alt.def"},
		{"stage", &Entry{ID: "Bifrost", Row: -1, Col: -1}, SectionStages, "stages/Bifrost.def"},
		{"grid position", &Entry{ID: "kfm", Row: 2, Col: 3}, SectionCharacters, "kfm, row=2, col=3"},
		{"random placeholder", &Entry{Random: true, Row: -1, Col: -1}, SectionCharacters, "randomselect"},
		{"params preserved", &Entry{ID: "kfm", Params: []Param{{Key: "order", Value: "3"}}, Row: -1, Col: -1}, SectionCharacters, "kfm, order=3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEntry(tt.entry, tt.section))
		})
	}
}

func TestReorder(t *testing.T) {
	text := "[Characters]\nkfm\n;Ryu\nsuave\n; a prose comment stays put\ngouki\n"
	script := mustParse(t, text)

	t.Run("permutation applied", func(t *testing.T) {
		require.NoError(t, script.Reorder(SectionCharacters, []string{"gouki", "Ryu", "suave", "kfm"}))

		got := script.Render()
		// Entries move with their own bytes; the comment keeps its slot.
		assert.Equal(t, "[Characters]\ngouki\n;Ryu\nsuave\n; a prose comment stays put\nkfm\n", got)
	})

	t.Run("wrong length rejected", func(t *testing.T) {
		err := script.Reorder(SectionCharacters, []string{"kfm"})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		err := script.Reorder(SectionCharacters, []string{"kfm", "Ryu", "suave", "nobody"})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestSetDirective(t *testing.T) {
	script := mustParse(t, sampleScript)

	t.Run("rewrite existing", func(t *testing.T) {
		script.SetDirective("options", "arcade.maxmatches", "9,0,0,0,0,0,0")
		val, ok := script.Directive("options", "arcade.maxmatches")
		require.True(t, ok)
		assert.Equal(t, "9,0,0,0,0,0,0", val)
		assert.NotContains(t, script.Render(), "6,1,1,0,0,0,0")
	})

	t.Run("insert new after header", func(t *testing.T) {
		script.SetDirective("options", "team.maxmatches", "4")
		val, ok := script.Directive("options", "team.maxmatches")
		require.True(t, ok)
		assert.Equal(t, "4", val)
	})

	t.Run("create missing section", func(t *testing.T) {
		script.SetDirective("music", "title.bgm", "sound/title.mp3")
		val, ok := script.Directive("music", "title.bgm")
		require.True(t, ok)
		assert.Equal(t, "sound/title.mp3", val)
	})
}
