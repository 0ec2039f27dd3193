package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByStatus filters intents by lifecycle state.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByStatusIn filters intents by a set of lifecycle states.
type ByStatusIn struct {
	Statuses []string
}

func (s ByStatusIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}

// UpdatedBefore keeps intents whose last activity predates the cutoff.
// Drives the dormant/expired transitions.
type UpdatedBefore struct {
	Cutoff time.Time
}

func (s UpdatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("last_updated < ?", s.Cutoff)
}
