package mapper

import (
	"encoding/json"
	"time"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type PageMapper struct{}

func NewPageMapper() *PageMapper {
	return &PageMapper{}
}

func (m *PageMapper) ToEntity(p *model.Page) *entity.Page {
	if p == nil {
		return nil
	}

	var interaction entity.Interaction
	_ = json.Unmarshal(p.Interaction, &interaction)

	var semantics *entity.SemanticFeatures
	if len(p.Semantics) > 0 {
		var s entity.SemanticFeatures
		if err := json.Unmarshal(p.Semantics, &s); err == nil {
			semantics = &s
		}
	}

	var primary *entity.IntentAssignment
	if len(p.PrimaryAssignment) > 0 {
		var a entity.IntentAssignment
		if err := json.Unmarshal(p.PrimaryAssignment, &a); err == nil && p.PrimaryIntentId != nil {
			primary = &a
		}
	}

	var secondary []entity.IntentAssignment
	_ = json.Unmarshal(p.Secondary, &secondary)

	var embedding []float32
	if p.Embedding != nil {
		embedding = p.Embedding.Slice()
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.Page{
		Id:          p.Id,
		Url:         p.Url,
		Title:       p.Title,
		Interaction: interaction,
		Semantics:   semantics,
		Embedding:   embedding,
		Primary:     primary,
		Secondary:   secondary,
		VisitedAt:   p.VisitedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *PageMapper) ToModel(p *entity.Page) *model.Page {
	if p == nil {
		return nil
	}

	interaction, _ := json.Marshal(p.Interaction)

	var semantics datatypes.JSON
	if p.Semantics != nil {
		semantics, _ = json.Marshal(p.Semantics)
	}

	var primaryAssignment datatypes.JSON
	if p.Primary != nil {
		primaryAssignment, _ = json.Marshal(p.Primary)
	}

	var secondary datatypes.JSON
	if p.Secondary != nil {
		secondary, _ = json.Marshal(p.Secondary)
	}

	var embedding *pgvector.Vector
	if len(p.Embedding) > 0 {
		v := pgvector.NewVector(p.Embedding)
		embedding = &v
	}

	out := &model.Page{
		Id:                p.Id,
		Url:               p.Url,
		Title:             p.Title,
		Interaction:       interaction,
		Semantics:         semantics,
		Embedding:         embedding,
		PrimaryAssignment: primaryAssignment,
		Secondary:         secondary,
		VisitedAt:         p.VisitedAt,
		CreatedAt:         p.CreatedAt,
	}
	if p.Primary != nil {
		id := p.Primary.IntentId
		out.PrimaryIntentId = &id
	}
	if p.UpdatedAt != nil {
		out.UpdatedAt = *p.UpdatedAt
	}
	return out
}

func (m *PageMapper) ToEntities(pages []*model.Page) []*entity.Page {
	entities := make([]*entity.Page, len(pages))
	for i, p := range pages {
		entities[i] = m.ToEntity(p)
	}
	return entities
}
