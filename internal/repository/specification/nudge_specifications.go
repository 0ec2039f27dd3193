package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NudgeByIntentAndType selects the single pending slot for a dedup key.
type NudgeByIntentAndType struct {
	IntentID uuid.UUID
	Type     string
}

func (s NudgeByIntentAndType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("intent_id = ? AND type = ?", s.IntentID, s.Type)
}

// NudgeByStatus filters nudges by status.
type NudgeByStatus struct {
	Status string
}

func (s NudgeByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// NudgeByStatusIn filters nudges by a set of statuses.
type NudgeByStatusIn struct {
	Statuses []string
}

func (s NudgeByStatusIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}

// NudgeCreatedAfter keeps nudges created after the cutoff; used to count the
// daily budget.
type NudgeCreatedAfter struct {
	Cutoff time.Time
}

func (s NudgeCreatedAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at > ?", s.Cutoff)
}
