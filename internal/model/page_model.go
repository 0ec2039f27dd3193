package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Page struct {
	Id    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Url   string    `gorm:"type:text;not null;index"`
	Title string    `gorm:"type:varchar(512)"`

	Interaction datatypes.JSON `gorm:"type:jsonb"`
	Semantics   datatypes.JSON `gorm:"type:jsonb"`

	// Embedding is optional; 768 dimensions matches the default embedding
	// providers (Gemini text-embedding-004, nomic-embed-text).
	Embedding *pgvector.Vector `gorm:"type:vector(768)"`

	PrimaryIntentId   *uuid.UUID     `gorm:"type:uuid;index"`
	PrimaryAssignment datatypes.JSON `gorm:"type:jsonb"`
	Secondary         datatypes.JSON `gorm:"type:jsonb"`

	VisitedAt time.Time      `gorm:"not null;index"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Page) TableName() string {
	return "pages"
}
