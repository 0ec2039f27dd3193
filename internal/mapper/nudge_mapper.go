package mapper

import (
	"encoding/json"
	"time"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/model"

	"gorm.io/datatypes"
)

type NudgeMapper struct{}

func NewNudgeMapper() *NudgeMapper {
	return &NudgeMapper{}
}

func (m *NudgeMapper) ToEntity(n *model.Nudge) *entity.Nudge {
	if n == nil {
		return nil
	}

	var data map[string]interface{}
	_ = json.Unmarshal(n.Data, &data)

	var updatedAt *time.Time
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		updatedAt = &t
	}

	return &entity.Nudge{
		Id:           n.Id,
		IntentId:     n.IntentId,
		Type:         n.Type,
		Status:       n.Status,
		Priority:     n.Priority,
		Message:      n.Message,
		Confidence:   n.Confidence,
		Data:         data,
		SnoozedUntil: n.SnoozedUntil,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *NudgeMapper) ToModel(n *entity.Nudge) *model.Nudge {
	if n == nil {
		return nil
	}

	data, _ := json.Marshal(n.Data)

	out := &model.Nudge{
		Id:           n.Id,
		IntentId:     n.IntentId,
		Type:         n.Type,
		Status:       n.Status,
		Priority:     n.Priority,
		Message:      n.Message,
		Confidence:   n.Confidence,
		Data:         datatypes.JSON(data),
		SnoozedUntil: n.SnoozedUntil,
		CreatedAt:    n.CreatedAt,
	}
	if n.UpdatedAt != nil {
		out.UpdatedAt = *n.UpdatedAt
	}
	return out
}

func (m *NudgeMapper) ToEntities(nudges []*model.Nudge) []*entity.Nudge {
	entities := make([]*entity.Nudge, len(nudges))
	for i, n := range nudges {
		entities[i] = m.ToEntity(n)
	}
	return entities
}
