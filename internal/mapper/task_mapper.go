package mapper

import (
	"encoding/json"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TaskMapper struct{}

func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

func (m *TaskMapper) ToEntity(t *model.Task) *entity.Task {
	if t == nil {
		return nil
	}

	var dependsOn []uuid.UUID
	_ = json.Unmarshal(t.DependsOn, &dependsOn)

	var input map[string]interface{}
	_ = json.Unmarshal(t.StructuredInput, &input)

	var output map[string]interface{}
	_ = json.Unmarshal(t.StructuredOutput, &output)

	var taskErr *entity.TaskError
	if t.ErrorKind != "" {
		taskErr = &entity.TaskError{Kind: t.ErrorKind, Message: t.ErrorMessage}
	}

	return &entity.Task{
		Id:               t.Id,
		Type:             t.Type,
		PageId:           t.PageId,
		IntentId:         t.IntentId,
		Priority:         t.Priority,
		Status:           t.Status,
		RetryCount:       t.RetryCount,
		DependsOn:        dependsOn,
		StructuredInput:  input,
		StructuredOutput: output,
		Error:            taskErr,
		NextRunAt:        t.NextRunAt,
		CreatedAt:        t.CreatedAt,
		StartedAt:        t.StartedAt,
		CompletedAt:      t.CompletedAt,
	}
}

func (m *TaskMapper) ToModel(t *entity.Task) *model.Task {
	if t == nil {
		return nil
	}

	dependsOn, _ := json.Marshal(t.DependsOn)
	input, _ := json.Marshal(t.StructuredInput)
	output, _ := json.Marshal(t.StructuredOutput)

	out := &model.Task{
		Id:               t.Id,
		Type:             t.Type,
		PageId:           t.PageId,
		IntentId:         t.IntentId,
		Priority:         t.Priority,
		Status:           t.Status,
		RetryCount:       t.RetryCount,
		DependsOn:        datatypes.JSON(dependsOn),
		StructuredInput:  datatypes.JSON(input),
		StructuredOutput: datatypes.JSON(output),
		NextRunAt:        t.NextRunAt,
		CreatedAt:        t.CreatedAt,
		StartedAt:        t.StartedAt,
		CompletedAt:      t.CompletedAt,
	}
	if t.Error != nil {
		out.ErrorKind = t.Error.Kind
		out.ErrorMessage = t.Error.Message
	}
	return out
}

func (m *TaskMapper) ToEntities(tasks []*model.Task) []*entity.Task {
	entities := make([]*entity.Task, len(tasks))
	for i, t := range tasks {
		entities[i] = m.ToEntity(t)
	}
	return entities
}
