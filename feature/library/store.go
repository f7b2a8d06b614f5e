package library

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"roster-manager/core/apperr"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"gorm.io/gorm"
)

// Store is the persistent library index: a cached relational projection of
// the filesystem, one table per content kind. Every row is rebuildable
// from a scan; on any disagreement the filesystem wins.
type Store struct {
	db *gorm.DB
}

// NewStore migrates the index tables and returns the store.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&CharacterRecord{}, &StageRecord{}, &ScreenpackRecord{}); err != nil {
		return nil, apperr.IO("", "could not migrate index tables", err)
	}
	return &Store{db: db}, nil
}

// Get returns the record for (kind, id).
func (s *Store) Get(ctx context.Context, kind Kind, id string) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).Table(tableFor(kind)).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(id, "not in library index")
	}
	if err != nil {
		return nil, apperr.IO("", "index query failed", err)
	}
	return &rec, nil
}

// All returns every record of the kind, ordered case-insensitively by name.
func (s *Store) All(ctx context.Context, kind Kind) ([]Record, error) {
	var recs []Record
	err := s.db.WithContext(ctx).Table(tableFor(kind)).
		Order("LOWER(name), id").Find(&recs).Error
	if err != nil {
		return nil, apperr.IO("", "index query failed", err)
	}
	return recs, nil
}

// Search returns records whose name or author contains the query,
// case-insensitively, ordered by name.
func (s *Store) Search(ctx context.Context, kind Kind, query string) ([]Record, error) {
	q := "%" + strings.ToLower(query) + "%"
	var recs []Record
	err := s.db.WithContext(ctx).Table(tableFor(kind)).
		Where("LOWER(name) LIKE ? OR LOWER(author) LIKE ?", q, q).
		Order("LOWER(name), id").Find(&recs).Error
	if err != nil {
		return nil, apperr.IO("", "index search failed", err)
	}
	return recs, nil
}

// Suggest returns up to limit records fuzzy-matching the query by name,
// best match first. Typo tolerance for the search box; Search stays the
// exact-substring contract.
func (s *Store) Suggest(ctx context.Context, kind Kind, query string, limit int) ([]Record, error) {
	recs, err := s.All(ctx, kind)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	out := make([]Record, 0, limit)
	for _, r := range ranks {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, recs[r.OriginalIndex])
	}
	return out, nil
}

// Upsert inserts or refreshes one record, preserving InstalledAt and the
// lazy classification fields on update.
func (s *Store) Upsert(ctx context.Context, kind Kind, rec Record) error {
	return s.upsertIn(s.db.WithContext(ctx), kind, rec)
}

func (s *Store) upsertIn(db *gorm.DB, kind Kind, rec Record) error {
	tbl := tableFor(kind)

	var count int64
	if err := db.Table(tbl).Where("id = ?", rec.ID).Count(&count).Error; err != nil {
		return apperr.IO("", "index lookup failed", err)
	}

	if count == 0 {
		rec.InstalledAt = time.Now()
		rec.UpdatedAt = time.Now()
		if err := db.Table(tbl).Create(&rec).Error; err != nil {
			return apperr.IO("", "index insert failed", err)
		}
		return nil
	}

	updates := map[string]any{
		"name":          rec.Name,
		"author":        rec.Author,
		"sprite":        rec.Sprite,
		"sound":         rec.Sound,
		"cmd":           rec.Cmd,
		"path":          rec.Path,
		"def_path":      rec.DefPath,
		"file_mod_time": rec.FileModTime,
		"resolution":    rec.Resolution,
		"camera_width":  rec.CameraWidth,
		"has_music":     rec.HasMusic,
		"version":       rec.Version,
		"read_error":    rec.ReadError,
		"updated_at":    time.Now(),
	}
	if err := db.Table(tbl).Where("id = ?", rec.ID).Updates(updates).Error; err != nil {
		return apperr.IO("", "index update failed", err)
	}
	return nil
}

// Delete removes the record for (kind, id). Deleting an absent id is not
// an error; the index converges on what exists.
func (s *Store) Delete(ctx context.Context, kind Kind, id string) error {
	err := s.db.WithContext(ctx).Table(tableFor(kind)).Where("id = ?", id).Delete(nil).Error
	if err != nil {
		return apperr.IO("", "index delete failed", err)
	}
	return nil
}

// SetClassification updates the lazy classification fields for one record.
func (s *Store) SetClassification(ctx context.Context, kind Kind, id, sourceGame, style, tags string) error {
	updates := map[string]any{
		"source_game": sourceGame,
		"style":       style,
		"tags":        tags,
		"updated_at":  time.Now(),
	}
	res := s.db.WithContext(ctx).Table(tableFor(kind)).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return apperr.IO("", "index update failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(id, "not in library index")
	}
	return nil
}

// Reindex makes the kind's table an exact mirror of the scan: every
// scanned item is upserted and every indexed id absent from the scan is
// deleted. The whole rebuild runs in one transaction so concurrent readers
// never observe a partially-rebuilt index, and cancellation between items
// rolls the rebuild back entirely.
func (s *Store) Reindex(ctx context.Context, kind Kind, items []ContentItem) error {
	tbl := tableFor(kind)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep := make(map[string]struct{}, len(items))

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if item.Kind != kind {
				continue
			}
			if err := s.upsertIn(tx, kind, RecordOf(item)); err != nil {
				return err
			}
			keep[item.ID] = struct{}{}
		}

		var ids []string
		if err := tx.Table(tbl).Pluck("id", &ids).Error; err != nil {
			return apperr.IO("", "index list failed", err)
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, ok := keep[id]; ok {
				continue
			}
			if err := tx.Table(tbl).Where("id = ?", id).Delete(nil).Error; err != nil {
				return apperr.IO("", "index delete failed", err)
			}
		}
		return nil
	})
}
