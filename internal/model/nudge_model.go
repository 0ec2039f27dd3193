package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Nudge struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IntentId uuid.UUID `gorm:"type:uuid;not null;index:idx_nudges_intent_type"`
	Type     string    `gorm:"type:varchar(32);not null;index:idx_nudges_intent_type"`
	Status   string    `gorm:"type:varchar(16);not null;index"`
	Priority string    `gorm:"type:varchar(8);not null"`

	Message    string         `gorm:"type:text"`
	Confidence float64        `gorm:"default:0"`
	Data       datatypes.JSON `gorm:"type:jsonb"`

	SnoozedUntil *time.Time
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Nudge) TableName() string {
	return "nudges"
}
