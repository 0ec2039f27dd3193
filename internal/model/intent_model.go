package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Intent struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Label           string         `gorm:"type:varchar(255)"`
	LabelConfidence float64        `gorm:"default:0"`
	LabelHistory    datatypes.JSON `gorm:"type:jsonb"`
	Status          string         `gorm:"type:varchar(32);not null;index"`

	PageCount int            `gorm:"default:0"`
	PageIds   datatypes.JSON `gorm:"type:jsonb"`

	Signals datatypes.JSON `gorm:"type:jsonb"`

	Goal      string         `gorm:"type:text"`
	Summary   string         `gorm:"type:text"`
	Insights  datatypes.JSON `gorm:"type:jsonb"`
	NextSteps datatypes.JSON `gorm:"type:jsonb"`

	MergedInto *uuid.UUID     `gorm:"type:uuid"`
	MergedFrom datatypes.JSON `gorm:"type:jsonb"`
	MergedAt   *time.Time

	FirstSeen   time.Time      `gorm:"not null"`
	LastUpdated time.Time      `gorm:"not null;index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Intent) TableName() string {
	return "intents"
}
