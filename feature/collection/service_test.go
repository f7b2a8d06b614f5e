package collection

import (
	"context"
	"path/filepath"
	"testing"

	"roster-manager/core/apperr"
	"roster-manager/feature/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *library.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "collections.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store, err := library.NewStore(db)
	require.NoError(t, err)

	svc, err := NewService(db, store, zap.NewNop())
	require.NoError(t, err)
	return svc, store
}

func seedRecords(t *testing.T, store *library.Store) {
	t.Helper()
	ctx := context.Background()
	recs := []library.Record{
		{ID: "kfm", Name: "Kung Fu Man", Author: "Elecbyte"},
		{ID: "ryu", Name: "Ryu", Author: "POTS", SourceGame: "SF3", Tags: "shoto"},
		{ID: "evil-ryu", Name: "Evil Ryu", Author: "POTS", SourceGame: "SF3", Tags: "shoto, boss"},
	}
	for _, r := range recs {
		require.NoError(t, store.Upsert(ctx, library.KindCharacter, r))
	}
}

func defaultOf(t *testing.T, svc *Service) Collection {
	t.Helper()
	cols, err := svc.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, cols)
	require.True(t, cols[0].Default)
	return cols[0]
}

func TestNewServiceCreatesDefault(t *testing.T) {
	svc, _ := newTestService(t)

	def := defaultOf(t, svc)
	assert.Equal(t, DefaultName, def.Name)
	assert.Equal(t, library.KindCharacter, def.Kind)
	assert.False(t, def.Smart)

	// A second start against the same database must not create another.
	require.NoError(t, svc.ensureDefault(context.Background()))
	cols, err := svc.List(context.Background())
	require.NoError(t, err)
	n := 0
	for _, c := range cols {
		if c.Default {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("explicit collection", func(t *testing.T) {
		col, err := svc.Create(ctx, Collection{
			Name: "Bosses",
			Kind: library.KindCharacter,
			Members: []Member{
				{Kind: library.KindCharacter, ItemID: "evil-ryu"},
			},
			// Caller-set flags must be ignored.
			Default: true,
			Active:  true,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, col.ID)
		assert.False(t, col.Default)
		assert.False(t, col.Active)
		require.Len(t, col.Members, 1)
		assert.Equal(t, 0, col.Members[0].Position)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, Collection{Name: "Bosses", Kind: library.KindCharacter})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Create(ctx, Collection{Kind: library.KindCharacter})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid), "empty name")

		_, err = svc.Create(ctx, Collection{Name: "x", Kind: library.Kind("weapon")})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid), "unknown kind")

		_, err = svc.Create(ctx, Collection{
			Name: "x", Kind: library.KindCharacter, Smart: true, Combinator: Combinator("most"),
		})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid), "unknown combinator")

		_, err = svc.Create(ctx, Collection{
			Name: "x", Kind: library.KindCharacter, Smart: true,
			Rules: []FilterRule{{Field: "power", Comparator: CompEquals, Value: "9000"}},
		})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid), "unknown rule field")
	})

	t.Run("smart defaults to all", func(t *testing.T) {
		col, err := svc.Create(ctx, Collection{
			Name: "Shotos", Kind: library.KindCharacter, Smart: true,
			Rules: []FilterRule{{Field: FieldTag, Comparator: CompEquals, Value: "shoto"}},
		})
		require.NoError(t, err)
		assert.Equal(t, CombinatorAll, col.Combinator)
	})

	t.Run("rules stripped from explicit collections", func(t *testing.T) {
		col, err := svc.Create(ctx, Collection{
			Name: "Plain", Kind: library.KindCharacter,
			Rules: []FilterRule{{Field: FieldTag, Comparator: CompEquals, Value: "shoto"}},
		})
		require.NoError(t, err)
		assert.Empty(t, col.Rules)
	})
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	col, err := svc.Create(ctx, Collection{
		Name: "Shotos", Kind: library.KindCharacter, Smart: true,
		Combinator: CombinatorAll,
		Rules:      []FilterRule{{Field: FieldTag, Comparator: CompEquals, Value: "shoto"}},
	})
	require.NoError(t, err)

	t.Run("rename and rule replacement", func(t *testing.T) {
		upd, err := svc.Update(ctx, col.ID, Collection{
			Name:       "SF3 Shotos",
			Combinator: CombinatorAny,
			Rules: []FilterRule{
				{Field: FieldTag, Comparator: CompEquals, Value: "shoto"},
				{Field: FieldSourceGame, Comparator: CompEquals, Value: "SF3"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "SF3 Shotos", upd.Name)
		assert.Equal(t, CombinatorAny, upd.Combinator)
		assert.Len(t, upd.Rules, 2)
	})

	t.Run("rename to taken name conflicts", func(t *testing.T) {
		other, err := svc.Create(ctx, Collection{Name: "Other", Kind: library.KindCharacter})
		require.NoError(t, err)
		_, err = svc.Update(ctx, other.ID, Collection{Name: "SF3 Shotos"})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("default cannot be renamed", func(t *testing.T) {
		def := defaultOf(t, svc)
		_, err := svc.Update(ctx, def.ID, Collection{Name: "Everything"})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid))

		// Same name is fine; asset paths stay updatable.
		upd, err := svc.Update(ctx, def.ID, Collection{Name: DefaultName, Screenpack: "data/big"})
		require.NoError(t, err)
		assert.Equal(t, "data/big", upd.Screenpack)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Update(ctx, "nope", Collection{Name: "x"})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	col, err := svc.Create(ctx, Collection{
		Name: "Doomed", Kind: library.KindCharacter,
		Members: []Member{{Kind: library.KindCharacter, ItemID: "kfm"}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, col.ID))
	_, err = svc.Get(ctx, col.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// Members go with the collection.
	var members int64
	require.NoError(t, svc.db.Model(&Member{}).Where("collection_id = ?", col.ID).Count(&members).Error)
	assert.Zero(t, members)

	t.Run("default cannot be deleted", func(t *testing.T) {
		def := defaultOf(t, svc)
		err := svc.Delete(ctx, def.ID)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
	})
}

func TestSetActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, Collection{Name: "A", Kind: library.KindCharacter})
	require.NoError(t, err)
	b, err := svc.Create(ctx, Collection{Name: "B", Kind: library.KindCharacter})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, a.ID))
	require.NoError(t, svc.SetActive(ctx, b.ID))

	cols, err := svc.List(ctx)
	require.NoError(t, err)
	for _, c := range cols {
		assert.Equal(t, c.ID == b.ID, c.Active, c.Name)
	}

	require.NoError(t, svc.ClearActive(ctx))
	cols, err = svc.List(ctx)
	require.NoError(t, err)
	for _, c := range cols {
		assert.False(t, c.Active, c.Name)
	}

	t.Run("unknown id", func(t *testing.T) {
		err := svc.SetActive(ctx, "nope")
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestMembers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	col, err := svc.Create(ctx, Collection{Name: "Mains", Kind: library.KindCharacter})
	require.NoError(t, err)

	require.NoError(t, svc.AddMember(ctx, col.ID, library.KindCharacter, "kfm", ""))
	require.NoError(t, svc.AddMember(ctx, col.ID, library.KindCharacter, "ryu", ""))
	require.NoError(t, svc.AddMember(ctx, col.ID, library.KindCharacter, "ryu", "alt.def"))

	t.Run("duplicate member conflicts", func(t *testing.T) {
		err := svc.AddMember(ctx, col.ID, library.KindCharacter, "ryu", "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("smart collections take no members", func(t *testing.T) {
		smart, err := svc.Create(ctx, Collection{Name: "Smart", Kind: library.KindCharacter, Smart: true})
		require.NoError(t, err)
		err = svc.AddMember(ctx, smart.ID, library.KindCharacter, "kfm", "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
	})

	full, err := svc.Get(ctx, col.ID)
	require.NoError(t, err)
	require.Len(t, full.Members, 3)

	t.Run("reorder", func(t *testing.T) {
		ids := []uint{full.Members[2].ID, full.Members[0].ID, full.Members[1].ID}
		require.NoError(t, svc.ReorderMembers(ctx, col.ID, ids))

		got, err := svc.Get(ctx, col.ID)
		require.NoError(t, err)
		assert.Equal(t, "alt.def", got.Members[0].Sub)
		assert.Equal(t, "kfm", got.Members[1].ItemID)

		err = svc.ReorderMembers(ctx, col.ID, ids[:2])
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid), "wrong length")

		err = svc.ReorderMembers(ctx, col.ID, []uint{ids[0], ids[0], ids[1]})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalid), "repeated member")

		err = svc.ReorderMembers(ctx, col.ID, []uint{ids[0], ids[1], 9999})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "foreign member")
	})

	t.Run("remove compacts positions", func(t *testing.T) {
		got, err := svc.Get(ctx, col.ID)
		require.NoError(t, err)
		require.NoError(t, svc.RemoveMember(ctx, col.ID, got.Members[0].ID))

		after, err := svc.Get(ctx, col.ID)
		require.NoError(t, err)
		require.Len(t, after.Members, 2)
		for i, m := range after.Members {
			assert.Equal(t, i, m.Position)
		}

		err = svc.RemoveMember(ctx, col.ID, 9999)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestResolve(t *testing.T) {
	svc, store := newTestService(t)
	seedRecords(t, store)
	ctx := context.Background()

	t.Run("default resolves to the full library", func(t *testing.T) {
		def := defaultOf(t, svc)
		recs, err := svc.Resolve(ctx, def.ID)
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("smart evaluates rules against the index", func(t *testing.T) {
		col, err := svc.Create(ctx, Collection{
			Name: "POTS SF3", Kind: library.KindCharacter, Smart: true,
			Combinator: CombinatorAll,
			Rules: []FilterRule{
				{Field: FieldAuthor, Comparator: CompEquals, Value: "POTS"},
				{Field: FieldSourceGame, Comparator: CompEquals, Value: "SF3"},
			},
		})
		require.NoError(t, err)

		recs, err := svc.Resolve(ctx, col.ID)
		require.NoError(t, err)
		require.Len(t, recs, 2)
	})

	t.Run("explicit keeps member order and skips unindexed ids", func(t *testing.T) {
		col, err := svc.Create(ctx, Collection{Name: "Picks", Kind: library.KindCharacter})
		require.NoError(t, err)
		require.NoError(t, svc.AddMember(ctx, col.ID, library.KindCharacter, "ryu", ""))
		require.NoError(t, svc.AddMember(ctx, col.ID, library.KindCharacter, "uninstalled", ""))
		require.NoError(t, svc.AddMember(ctx, col.ID, library.KindCharacter, "kfm", ""))

		recs, err := svc.Resolve(ctx, col.ID)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "ryu", recs[0].ID)
		assert.Equal(t, "kfm", recs[1].ID)
	})
}

func TestContaining(t *testing.T) {
	svc, store := newTestService(t)
	seedRecords(t, store)
	ctx := context.Background()

	explicit, err := svc.Create(ctx, Collection{Name: "Picks", Kind: library.KindCharacter})
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(ctx, explicit.ID, library.KindCharacter, "ryu", ""))

	_, err = svc.Create(ctx, Collection{
		Name: "Bosses", Kind: library.KindCharacter, Smart: true,
		Combinator: CombinatorAll,
		Rules:      []FilterRule{{Field: FieldTag, Comparator: CompEquals, Value: "boss"}},
	})
	require.NoError(t, err)

	t.Run("explicit membership", func(t *testing.T) {
		cols, err := svc.Containing(ctx, library.KindCharacter, "ryu")
		require.NoError(t, err)
		require.Len(t, cols, 1)
		assert.Equal(t, "Picks", cols[0].Name)
	})

	t.Run("smart match", func(t *testing.T) {
		cols, err := svc.Containing(ctx, library.KindCharacter, "evil-ryu")
		require.NoError(t, err)
		require.Len(t, cols, 1)
		assert.Equal(t, "Bosses", cols[0].Name)
	})

	t.Run("unindexed item matches nothing smart", func(t *testing.T) {
		cols, err := svc.Containing(ctx, library.KindCharacter, "ghost")
		require.NoError(t, err)
		assert.Empty(t, cols)
	})
}
