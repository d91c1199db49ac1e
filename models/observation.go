package models

import (
	"time"
)

// Category classifies a single plate observation
type Category string

const (
	CategoryClean   Category = "clean"
	CategoryRed     Category = "red"
	CategoryDirty   Category = "dirty"
	CategoryFaculty Category = "faculty"
)

// ValidCategory reports whether c is one of the recordable categories
func ValidCategory(c Category) bool {
	switch c {
	case CategoryClean, CategoryRed, CategoryDirty, CategoryFaculty:
		return true
	}
	return false
}

// AffectsTickets reports whether the category participates in ledger
// replay. Dirty and faculty observations are recorded but never move
// ticket balances.
func (c Category) AffectsTickets() bool {
	return c == CategoryClean || c == CategoryRed
}

// Observation represents a single plate record within a session.
// Immutable once recorded.
type Observation struct {
	ID          int64       `db:"id" json:"id"`
	SessionID   int64       `db:"session_id" json:"session_id"`
	IdentityKey IdentityKey `db:"identity_key" json:"identity_key"`
	Category    Category    `db:"category" json:"category"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}
