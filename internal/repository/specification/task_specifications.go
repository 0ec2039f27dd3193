package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskByStatus filters tasks by status.
type TaskByStatus struct {
	Status string
}

func (s TaskByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// TaskByStatusIn filters tasks by a set of statuses.
type TaskByStatusIn struct {
	Statuses []string
}

func (s TaskByStatusIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}

// TaskByType filters tasks by job type.
type TaskByType struct {
	Type string
}

func (s TaskByType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("type = ?", s.Type)
}

// TaskForPage filters tasks targeting a page.
type TaskForPage struct {
	PageID uuid.UUID
}

func (s TaskForPage) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("page_id = ?", s.PageID)
}

// TaskForIntent filters tasks targeting an intent.
type TaskForIntent struct {
	IntentID uuid.UUID
}

func (s TaskForIntent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("intent_id = ?", s.IntentID)
}

// TaskDueBefore keeps queued tasks whose backoff window has elapsed.
type TaskDueBefore struct {
	Now time.Time
}

func (s TaskDueBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("next_run_at <= ?", s.Now)
}

// SchedulerOrder applies the scheduler's deterministic selection order:
// priority ascending, then enqueue time (FIFO within a priority).
type SchedulerOrder struct{}

func (s SchedulerOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("priority ASC").Order("created_at ASC")
}
