package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByURL filters pages by exact URL.
type ByURL struct {
	URL string
}

func (s ByURL) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("url = ?", s.URL)
}

// VisitedAfter keeps pages first seen after the cutoff. Used together with
// ByURL to detect a second report of the same visit.
type VisitedAfter struct {
	Cutoff time.Time
}

func (s VisitedAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("visited_at > ?", s.Cutoff)
}

// ByPrimaryIntent filters pages owned by an intent.
type ByPrimaryIntent struct {
	IntentID uuid.UUID
}

func (s ByPrimaryIntent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("primary_intent_id = ?", s.IntentID)
}

// Unassigned keeps pages without a primary intent.
type Unassigned struct{}

func (s Unassigned) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("primary_intent_id IS NULL")
}
