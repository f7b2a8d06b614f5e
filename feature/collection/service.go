package collection

import (
	"context"
	"errors"
	"sort"

	"roster-manager/core/apperr"
	"roster-manager/feature/library"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultName is the name of the system-managed default collection.
const DefaultName = "Library"

// Service owns collection persistence and resolution. Exactly one default
// collection exists at all times and at most one collection is active;
// both invariants are enforced here, never left to callers.
type Service struct {
	db        *gorm.DB
	store     *library.Store
	evaluator *Evaluator
	logger    *zap.Logger
}

// NewService migrates the collection tables, guarantees the default
// collection exists, and returns the service.
func NewService(db *gorm.DB, store *library.Store, logger *zap.Logger) (*Service, error) {
	if err := db.AutoMigrate(&Collection{}, &Member{}, &FilterRule{}); err != nil {
		return nil, apperr.IO("", "could not migrate collection tables", err)
	}
	s := &Service{db: db, store: store, evaluator: &Evaluator{}, logger: logger}
	if err := s.ensureDefault(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureDefault creates the default collection when none exists. The
// default is explicit with no members: it stands for the full library and
// is resolved specially.
func (s *Service) ensureDefault(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Collection{}).Where("`default` = ?", true).Count(&count).Error; err != nil {
		return apperr.IO("", "collection lookup failed", err)
	}
	if count > 0 {
		return nil
	}
	def := Collection{
		ID:      uuid.NewString(),
		Name:    DefaultName,
		Kind:    library.KindCharacter,
		Default: true,
	}
	if err := s.db.WithContext(ctx).Create(&def).Error; err != nil {
		return apperr.IO("", "could not create default collection", err)
	}
	s.logger.Info("Created default collection", zap.String("id", def.ID))
	return nil
}

// List returns all collections, default first, then by name.
func (s *Service) List(ctx context.Context) ([]Collection, error) {
	var cols []Collection
	err := s.db.WithContext(ctx).
		Order("`default` DESC, LOWER(name)").
		Find(&cols).Error
	if err != nil {
		return nil, apperr.IO("", "collection list failed", err)
	}
	return cols, nil
}

// Get returns one collection with its members (in position order) and rules.
func (s *Service) Get(ctx context.Context, id string) (*Collection, error) {
	var col Collection
	err := s.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Rules").
		Where("id = ?", id).Take(&col).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(id, "collection does not exist")
	}
	if err != nil {
		return nil, apperr.IO("", "collection lookup failed", err)
	}
	return &col, nil
}

// Create validates and persists a new collection. The default flag is
// system-managed and cannot be set by callers.
func (s *Service) Create(ctx context.Context, col Collection) (*Collection, error) {
	if col.Name == "" {
		return nil, apperr.Invalid("collection name must not be empty", nil)
	}
	if !library.ValidKind(col.Kind) {
		return nil, apperr.Invalid("unknown content kind "+string(col.Kind), nil)
	}
	if col.Smart {
		if col.Combinator == "" {
			col.Combinator = CombinatorAll
		}
		if col.Combinator != CombinatorAll && col.Combinator != CombinatorAny {
			return nil, apperr.Invalid("unknown combinator "+string(col.Combinator), nil)
		}
		for _, r := range col.Rules {
			if err := validateRule(r); err != nil {
				return nil, err
			}
		}
	} else {
		col.Combinator = ""
		col.Rules = nil
	}
	col.ID = uuid.NewString()
	col.Default = false
	col.Active = false
	for i := range col.Members {
		col.Members[i].ID = 0
		col.Members[i].CollectionID = col.ID
		col.Members[i].Position = i
	}
	for i := range col.Rules {
		col.Rules[i].ID = 0
		col.Rules[i].CollectionID = col.ID
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Collection{}).Where("name = ?", col.Name).Count(&count).Error; err != nil {
		return nil, apperr.IO("", "collection lookup failed", err)
	}
	if count > 0 {
		return nil, apperr.Conflict(col.Name, "a collection with this name already exists")
	}
	if err := s.db.WithContext(ctx).Create(&col).Error; err != nil {
		return nil, apperr.IO("", "collection insert failed", err)
	}
	s.logger.Info("Created collection",
		zap.String("id", col.ID), zap.String("name", col.Name), zap.Bool("smart", col.Smart))
	return &col, nil
}

// Update renames a collection and replaces its asset paths and, for smart
// collections, its rule set. The default, active, smart, and kind fields
// are not updatable here.
func (s *Service) Update(ctx context.Context, id string, upd Collection) (*Collection, error) {
	col, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name == "" {
		return nil, apperr.Invalid("collection name must not be empty", nil)
	}
	if col.Default && upd.Name != col.Name {
		return nil, apperr.Invalid("the default collection cannot be renamed", nil)
	}

	if upd.Name != col.Name {
		var count int64
		if err := s.db.WithContext(ctx).Model(&Collection{}).
			Where("name = ? AND id <> ?", upd.Name, id).Count(&count).Error; err != nil {
			return nil, apperr.IO("", "collection lookup failed", err)
		}
		if count > 0 {
			return nil, apperr.Conflict(upd.Name, "a collection with this name already exists")
		}
	}

	if col.Smart {
		if upd.Combinator == "" {
			upd.Combinator = col.Combinator
		}
		if upd.Combinator != CombinatorAll && upd.Combinator != CombinatorAny {
			return nil, apperr.Invalid("unknown combinator "+string(upd.Combinator), nil)
		}
		for _, r := range upd.Rules {
			if err := validateRule(r); err != nil {
				return nil, err
			}
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"name":       upd.Name,
			"screenpack": upd.Screenpack,
			"lifebar":    upd.Lifebar,
			"font":       upd.Font,
			"sound":      upd.Sound,
		}
		if col.Smart {
			updates["combinator"] = upd.Combinator
		}
		if err := tx.Model(&Collection{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return apperr.IO("", "collection update failed", err)
		}
		if col.Smart {
			if err := tx.Where("collection_id = ?", id).Delete(&FilterRule{}).Error; err != nil {
				return apperr.IO("", "rule replace failed", err)
			}
			for i := range upd.Rules {
				upd.Rules[i].ID = 0
				upd.Rules[i].CollectionID = id
			}
			if len(upd.Rules) > 0 {
				if err := tx.Create(&upd.Rules).Error; err != nil {
					return apperr.IO("", "rule replace failed", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a collection and its members and rules. The default
// collection cannot be deleted; removing a collection never touches the
// content it references.
func (s *Service) Delete(ctx context.Context, id string) error {
	col, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if col.Default {
		return apperr.Invalid("the default collection cannot be deleted", nil)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&Member{}).Error; err != nil {
			return apperr.IO("", "collection delete failed", err)
		}
		if err := tx.Where("collection_id = ?", id).Delete(&FilterRule{}).Error; err != nil {
			return apperr.IO("", "collection delete failed", err)
		}
		if err := tx.Where("id = ?", id).Delete(&Collection{}).Error; err != nil {
			return apperr.IO("", "collection delete failed", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Deleted collection", zap.String("id", id), zap.String("name", col.Name))
	return nil
}

// SetActive marks one collection active and clears the flag everywhere
// else, in a single transaction.
func (s *Service) SetActive(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Collection{}).Where("active = ?", true).Update("active", false).Error; err != nil {
			return apperr.IO("", "collection update failed", err)
		}
		if err := tx.Model(&Collection{}).Where("id = ?", id).Update("active", true).Error; err != nil {
			return apperr.IO("", "collection update failed", err)
		}
		return nil
	})
}

// ClearActive deactivates whichever collection is active, if any.
func (s *Service) ClearActive(ctx context.Context) error {
	err := s.db.WithContext(ctx).Model(&Collection{}).
		Where("active = ?", true).Update("active", false).Error
	if err != nil {
		return apperr.IO("", "collection update failed", err)
	}
	return nil
}

// AddMember appends an item to an explicit collection. Adding a member
// already present is a conflict; adding to a smart collection is invalid.
func (s *Service) AddMember(ctx context.Context, id string, kind library.Kind, itemID, sub string) error {
	col, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if col.Smart {
		return apperr.Invalid("smart collections have no explicit members", nil)
	}
	if !library.ValidKind(kind) {
		return apperr.Invalid("unknown content kind "+string(kind), nil)
	}
	for _, m := range col.Members {
		if m.Kind == kind && m.ItemID == itemID && m.Sub == sub {
			return apperr.Conflict(itemID, "already in collection "+col.Name)
		}
	}
	m := Member{
		CollectionID: id,
		Position:     len(col.Members),
		Kind:         kind,
		ItemID:       itemID,
		Sub:          sub,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return apperr.IO("", "member insert failed", err)
	}
	return nil
}

// RemoveMember deletes one member slot and compacts the positions after it.
func (s *Service) RemoveMember(ctx context.Context, id string, memberID uint) error {
	col, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	idx := -1
	for i, m := range col.Members {
		if m.ID == memberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperr.NotFound("", "member not in collection "+col.Name)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", memberID).Delete(&Member{}).Error; err != nil {
			return apperr.IO("", "member delete failed", err)
		}
		for i := idx + 1; i < len(col.Members); i++ {
			err := tx.Model(&Member{}).Where("id = ?", col.Members[i].ID).
				Update("position", i-1).Error
			if err != nil {
				return apperr.IO("", "member reorder failed", err)
			}
		}
		return nil
	})
}

// ReorderMembers rewrites an explicit collection's order. memberIDs must
// be a permutation of the current members.
func (s *Service) ReorderMembers(ctx context.Context, id string, memberIDs []uint) error {
	col, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if col.Smart {
		return apperr.Invalid("smart collections have no explicit order", nil)
	}
	if len(memberIDs) != len(col.Members) {
		return apperr.Invalid("order must list every member exactly once", nil)
	}
	present := make(map[uint]bool, len(col.Members))
	for _, m := range col.Members {
		present[m.ID] = true
	}
	seen := make(map[uint]bool, len(memberIDs))
	for _, mid := range memberIDs {
		if !present[mid] {
			return apperr.NotFound("", "member not in collection "+col.Name)
		}
		if seen[mid] {
			return apperr.Invalid("order lists a member twice", nil)
		}
		seen[mid] = true
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for pos, mid := range memberIDs {
			err := tx.Model(&Member{}).Where("id = ?", mid).Update("position", pos).Error
			if err != nil {
				return apperr.IO("", "member reorder failed", err)
			}
		}
		return nil
	})
}

// Resolve returns the index records a collection currently stands for.
// The default collection resolves to the full library of its kind; a
// smart collection evaluates its rules against the index; an explicit
// collection looks up each member in order, skipping ids no longer
// indexed.
func (s *Service) Resolve(ctx context.Context, id string) ([]library.Record, error) {
	col, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if col.Default {
		return s.store.All(ctx, col.Kind)
	}
	if col.Smart {
		recs, err := s.store.All(ctx, col.Kind)
		if err != nil {
			return nil, err
		}
		return s.evaluator.Evaluate(recs, col.Rules, col.Combinator)
	}

	out := make([]library.Record, 0, len(col.Members))
	for _, m := range col.Members {
		rec, err := s.store.Get(ctx, m.Kind, m.ItemID)
		if apperr.IsKind(err, apperr.KindNotFound) {
			s.logger.Warn("Collection member not indexed, skipping",
				zap.String("collection", col.Name), zap.String("id", m.ItemID))
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Containing returns the collections an item currently belongs to:
// explicit collections listing it plus smart collections whose rules
// match it. Used by the delete-content flow to warn about affected
// collections before anything is removed.
func (s *Service) Containing(ctx context.Context, kind library.Kind, itemID string) ([]Collection, error) {
	cols, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, kind, itemID)
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, err
	}

	var out []Collection
	for _, col := range cols {
		full, err := s.Get(ctx, col.ID)
		if err != nil {
			return nil, err
		}
		if full.Smart {
			if rec == nil || full.Kind != kind {
				continue
			}
			matched, err := s.evaluator.Evaluate([]library.Record{*rec}, full.Rules, full.Combinator)
			if err != nil {
				return nil, err
			}
			if len(matched) > 0 {
				out = append(out, *full)
			}
			continue
		}
		for _, m := range full.Members {
			if m.Kind == kind && m.ItemID == itemID {
				out = append(out, *full)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
