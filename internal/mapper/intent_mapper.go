package mapper

import (
	"encoding/json"
	"time"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type IntentMapper struct{}

func NewIntentMapper() *IntentMapper {
	return &IntentMapper{}
}

func (m *IntentMapper) ToEntity(i *model.Intent) *entity.Intent {
	if i == nil {
		return nil
	}

	var labelHistory []entity.LabelRevision
	_ = json.Unmarshal(i.LabelHistory, &labelHistory)

	var pageIds []uuid.UUID
	_ = json.Unmarshal(i.PageIds, &pageIds)

	var signals entity.AggregatedSignals
	_ = json.Unmarshal(i.Signals, &signals)
	if signals.Keywords == nil {
		signals.Keywords = make(map[string]entity.KeywordStat)
	}

	var insights []string
	_ = json.Unmarshal(i.Insights, &insights)

	var nextSteps []string
	_ = json.Unmarshal(i.NextSteps, &nextSteps)

	var mergedFrom []uuid.UUID
	_ = json.Unmarshal(i.MergedFrom, &mergedFrom)

	var updatedAt *time.Time
	if !i.UpdatedAt.IsZero() {
		t := i.UpdatedAt
		updatedAt = &t
	}

	return &entity.Intent{
		Id:              i.Id,
		Label:           i.Label,
		LabelConfidence: i.LabelConfidence,
		LabelHistory:    labelHistory,
		Status:          i.Status,
		PageCount:       i.PageCount,
		PageIds:         pageIds,
		Signals:         signals,
		Goal:            i.Goal,
		Summary:         i.Summary,
		Insights:        insights,
		NextSteps:       nextSteps,
		MergedInto:      i.MergedInto,
		MergedFrom:      mergedFrom,
		MergedAt:        i.MergedAt,
		FirstSeen:       i.FirstSeen,
		LastUpdated:     i.LastUpdated,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *IntentMapper) ToModel(i *entity.Intent) *model.Intent {
	if i == nil {
		return nil
	}

	labelHistory, _ := json.Marshal(i.LabelHistory)
	pageIds, _ := json.Marshal(i.PageIds)
	signals, _ := json.Marshal(i.Signals)
	insights, _ := json.Marshal(i.Insights)
	nextSteps, _ := json.Marshal(i.NextSteps)
	mergedFrom, _ := json.Marshal(i.MergedFrom)

	out := &model.Intent{
		Id:              i.Id,
		Label:           i.Label,
		LabelConfidence: i.LabelConfidence,
		LabelHistory:    datatypes.JSON(labelHistory),
		Status:          i.Status,
		PageCount:       i.PageCount,
		PageIds:         datatypes.JSON(pageIds),
		Signals:         datatypes.JSON(signals),
		Goal:            i.Goal,
		Summary:         i.Summary,
		Insights:        datatypes.JSON(insights),
		NextSteps:       datatypes.JSON(nextSteps),
		MergedInto:      i.MergedInto,
		MergedFrom:      datatypes.JSON(mergedFrom),
		MergedAt:        i.MergedAt,
		FirstSeen:       i.FirstSeen,
		LastUpdated:     i.LastUpdated,
		CreatedAt:       i.CreatedAt,
	}
	if i.UpdatedAt != nil {
		out.UpdatedAt = *i.UpdatedAt
	}
	return out
}

func (m *IntentMapper) ToEntities(intents []*model.Intent) []*entity.Intent {
	entities := make([]*entity.Intent, len(intents))
	for i, it := range intents {
		entities[i] = m.ToEntity(it)
	}
	return entities
}
