package collection

import (
	"time"

	"roster-manager/feature/library"
)

// Combinator joins a smart collection's rules.
type Combinator string

const (
	// CombinatorAll matches items satisfying every rule. An empty rule
	// set matches everything ("all of nothing" is vacuously true).
	CombinatorAll Combinator = "all"
	// CombinatorAny matches items satisfying at least one rule. An empty
	// rule set matches nothing. The asymmetry mirrors the "all of / any
	// of" wording and the empty-state UI relies on it.
	CombinatorAny Combinator = "any"
)

// Comparator is a rule's comparison operator.
type Comparator string

const (
	CompEquals      Comparator = "equals"
	CompNotEquals   Comparator = "notEquals"
	CompContains    Comparator = "contains"
	CompNotContains Comparator = "notContains"
	CompGreaterThan Comparator = "greaterThan"
	CompLessThan    Comparator = "lessThan"
	CompWithinDays  Comparator = "withinDays"
	CompIsEmpty     Comparator = "isEmpty"
	CompIsNotEmpty  Comparator = "isNotEmpty"
)

// Rule fields, the fixed enumeration smart collections can filter on.
const (
	FieldName        = "name"
	FieldAuthor      = "author"
	FieldTag         = "tag"
	FieldInstalledAt = "installedAt"
	FieldSourceGame  = "sourceGame"
	FieldStyle       = "style"
	FieldCameraWidth = "cameraWidth"
	FieldHasMusic    = "hasMusic"
	FieldResolution  = "resolution"
)

// FilterRule is one (field, comparator, value) predicate. The value is
// stored as text and coerced per field type at evaluation time.
type FilterRule struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	CollectionID string     `gorm:"index" json:"collection_id"`
	Field        string     `json:"field"`
	Comparator   Comparator `json:"comparator"`
	Value        string     `json:"value"`
}

// Member is one explicit collection slot, ordered by Position.
type Member struct {
	ID           uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	CollectionID string       `gorm:"index" json:"collection_id"`
	Position     int          `json:"position"`
	Kind         library.Kind `json:"kind"`
	ItemID       string       `json:"item_id"`
	// Sub is the optional sub-definition selector.
	Sub string `json:"sub,omitempty"`
}

// Collection is a named, ordered roster: explicit (literal member list
// plus associated asset paths) or smart (rule set plus combinator).
type Collection struct {
	ID   string `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex" json:"name"`
	// Kind scopes what the collection holds; smart rules evaluate
	// against this kind's index.
	Kind library.Kind `json:"kind"`
	// Smart collections carry rules instead of members.
	Smart      bool       `json:"smart"`
	Combinator Combinator `json:"combinator,omitempty"`

	// Default marks the full, ungrouped library; exactly one exists.
	Default bool `json:"default"`
	// Active marks the collection currently applied; at most one.
	Active bool `json:"active"`

	// Associated asset paths for explicit collections.
	Screenpack string `json:"screenpack,omitempty"`
	Lifebar    string `json:"lifebar,omitempty"`
	Font       string `json:"font,omitempty"`
	Sound      string `json:"sound,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Members []Member     `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Rules   []FilterRule `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE" json:"rules,omitempty"`
}

func (Collection) TableName() string { return "collections" }
func (Member) TableName() string     { return "collection_members" }
func (FilterRule) TableName() string { return "collection_rules" }
