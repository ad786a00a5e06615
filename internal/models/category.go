package models

import "time"

// CategoryType distinguishes ordinary from extraordinary budget lines.
type CategoryType string

// CategorySection maps a category to the accounting section it belongs to.
type CategorySection string

const (
	CategoryTypeOrdinaire      CategoryType = "ordinaire"
	CategoryTypeExtraordinaire CategoryType = "extraordinaire"

	CategorySectionFonctionnement CategorySection = "fonctionnement"
	CategorySectionInvestissement CategorySection = "investissement"
)

// Category is an accounting taxonomy node. Categories form a tree through
// ParentID; Level is the depth starting at 1 for roots.
type Category struct {
	ID        string          `db:"id" json:"id"`
	Code      string          `db:"code" json:"code"`
	Name      string          `db:"name" json:"name"`
	ParentID  *string         `db:"parent_id" json:"parent_id,omitempty"`
	Level     int             `db:"level" json:"level"`
	Type      CategoryType    `db:"type" json:"type"`
	Section   CategorySection `db:"section" json:"section"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
