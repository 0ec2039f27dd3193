package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Task struct {
	Id   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type string    `gorm:"type:varchar(64);not null;index"`

	PageId   *uuid.UUID `gorm:"type:uuid;index"`
	IntentId *uuid.UUID `gorm:"type:uuid;index"`

	Priority   int            `gorm:"not null;index"`
	Status     string         `gorm:"type:varchar(16);not null;index"`
	RetryCount int            `gorm:"default:0"`
	DependsOn  datatypes.JSON `gorm:"type:jsonb"`

	StructuredInput  datatypes.JSON `gorm:"type:jsonb"`
	StructuredOutput datatypes.JSON `gorm:"type:jsonb"`
	ErrorKind        string         `gorm:"type:varchar(16)"`
	ErrorMessage     string         `gorm:"type:text"`

	NextRunAt   time.Time `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Task) TableName() string {
	return "tasks"
}
