package collection

import (
	"testing"
	"time"

	"roster-manager/core/apperr"
	"roster-manager/feature/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testRecords() []library.Record {
	return []library.Record{
		{
			ID: "ryu", Name: "Ryu", Author: "Capcom",
			SourceGame: "SF3", Style: "pots", Tags: "shoto,classic",
			CameraWidth: 320, HasMusic: true, Resolution: "640x480",
			InstalledAt: evalNow.AddDate(0, 0, -2),
		},
		{
			ID: "evil-ryu", Name: "Evil Ryu", Author: "Someone",
			SourceGame: "SF3", Style: "cvs", Tags: "shoto",
			CameraWidth: 420, HasMusic: false,
			InstalledAt: evalNow.AddDate(0, 0, -40),
		},
		{
			ID: "kfm", Name: "Kung Fu Man", Author: "Elecbyte",
			InstalledAt: evalNow.AddDate(0, 0, -400),
		},
	}
}

func ids(recs []library.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestEvaluateEmptyRules(t *testing.T) {
	e := &Evaluator{Now: func() time.Time { return evalNow }}
	recs := testRecords()

	t.Run("all matches everything", func(t *testing.T) {
		got, err := e.Evaluate(recs, nil, CombinatorAll)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("any matches nothing", func(t *testing.T) {
		got, err := e.Evaluate(recs, nil, CombinatorAny)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown combinator rejected", func(t *testing.T) {
		_, err := e.Evaluate(recs, nil, Combinator("some"))
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
	})
}

func TestEvaluateRules(t *testing.T) {
	e := &Evaluator{Now: func() time.Time { return evalNow }}
	recs := testRecords()

	tests := []struct {
		name       string
		rules      []FilterRule
		combinator Combinator
		want       []string
	}{
		{
			"contains is case-insensitive substring",
			[]FilterRule{{Field: FieldName, Comparator: CompContains, Value: "ryu"}},
			CombinatorAll,
			[]string{"ryu", "evil-ryu"},
		},
		{
			"equals matches whole value",
			[]FilterRule{{Field: FieldName, Comparator: CompEquals, Value: "ryu"}},
			CombinatorAll,
			[]string{"ryu"},
		},
		{
			"tag equals matches one list element",
			[]FilterRule{{Field: FieldTag, Comparator: CompEquals, Value: "classic"}},
			CombinatorAll,
			[]string{"ryu"},
		},
		{
			"notContains",
			[]FilterRule{{Field: FieldAuthor, Comparator: CompNotContains, Value: "cap"}},
			CombinatorAll,
			[]string{"evil-ryu", "kfm"},
		},
		{
			"all combines conjunctively",
			[]FilterRule{
				{Field: FieldSourceGame, Comparator: CompEquals, Value: "sf3"},
				{Field: FieldStyle, Comparator: CompEquals, Value: "pots"},
			},
			CombinatorAll,
			[]string{"ryu"},
		},
		{
			"any combines disjunctively",
			[]FilterRule{
				{Field: FieldStyle, Comparator: CompEquals, Value: "pots"},
				{Field: FieldStyle, Comparator: CompEquals, Value: "cvs"},
			},
			CombinatorAny,
			[]string{"ryu", "evil-ryu"},
		},
		{
			"greaterThan on cameraWidth",
			[]FilterRule{{Field: FieldCameraWidth, Comparator: CompGreaterThan, Value: "400"}},
			CombinatorAll,
			[]string{"evil-ryu"},
		},
		{
			"lessThan on cameraWidth",
			[]FilterRule{{Field: FieldCameraWidth, Comparator: CompLessThan, Value: "400"}},
			CombinatorAll,
			[]string{"ryu", "kfm"},
		},
		{
			"hasMusic equals",
			[]FilterRule{{Field: FieldHasMusic, Comparator: CompEquals, Value: "true"}},
			CombinatorAll,
			[]string{"ryu"},
		},
		{
			"withinDays",
			[]FilterRule{{Field: FieldInstalledAt, Comparator: CompWithinDays, Value: "30"}},
			CombinatorAll,
			[]string{"ryu"},
		},
		{
			"isEmpty",
			[]FilterRule{{Field: FieldSourceGame, Comparator: CompIsEmpty}},
			CombinatorAll,
			[]string{"kfm"},
		},
		{
			"isNotEmpty",
			[]FilterRule{{Field: FieldResolution, Comparator: CompIsNotEmpty}},
			CombinatorAll,
			[]string{"ryu"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(recs, tt.rules, tt.combinator)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestEvaluateRejectsBadRules(t *testing.T) {
	e := &Evaluator{Now: func() time.Time { return evalNow }}
	recs := testRecords()

	tests := []struct {
		name string
		rule FilterRule
	}{
		{"unknown field", FilterRule{Field: "height", Comparator: CompEquals, Value: "1"}},
		{"unknown comparator", FilterRule{Field: FieldName, Comparator: Comparator("matches"), Value: "x"}},
		{"contains on number", FilterRule{Field: FieldCameraWidth, Comparator: CompContains, Value: "3"}},
		{"greaterThan on text", FilterRule{Field: FieldName, Comparator: CompGreaterThan, Value: "3"}},
		{"withinDays on text", FilterRule{Field: FieldAuthor, Comparator: CompWithinDays, Value: "7"}},
		{"non-numeric literal", FilterRule{Field: FieldCameraWidth, Comparator: CompGreaterThan, Value: "wide"}},
		{"non-boolean literal", FilterRule{Field: FieldHasMusic, Comparator: CompEquals, Value: "yes"}},
		{"negative day count", FilterRule{Field: FieldInstalledAt, Comparator: CompWithinDays, Value: "-1"}},
		// Exact-instant comparison on a timestamp can never match.
		{"equals on timestamp", FilterRule{Field: FieldInstalledAt, Comparator: CompEquals, Value: "7"}},
		{"notEquals on timestamp", FilterRule{Field: FieldInstalledAt, Comparator: CompNotEquals, Value: "7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Evaluate(recs, []FilterRule{tt.rule}, CombinatorAll)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
		})
	}
}
