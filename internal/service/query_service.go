package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"ai-intent-be/internal/dto"
	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/repository/specification"
	"ai-intent-be/internal/repository/unitofwork"
)

// IQueryService serves the read side of the REST boundary. It never mutates
// anything; commands go through the store, scheduler and suggestion services.
type IQueryService interface {
	ListPages(ctx context.Context, limit, offset int) ([]dto.PageResponse, error)
	GetPage(ctx context.Context, id uuid.UUID) (*dto.PageResponse, error)

	ListIntents(ctx context.Context, status string, limit, offset int) ([]dto.IntentResponse, error)
	GetIntent(ctx context.Context, id uuid.UUID) (*dto.IntentDetailResponse, error)

	ListTasks(ctx context.Context, pageId, intentId *uuid.UUID, limit, offset int) ([]dto.TaskResponse, error)
	GetTask(ctx context.Context, id uuid.UUID) (*dto.TaskResponse, error)

	ListPendingNudges(ctx context.Context) ([]dto.NudgeResponse, error)
}

type queryService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewQueryService(uowFactory unitofwork.RepositoryFactory) IQueryService {
	return &queryService{uowFactory: uowFactory}
}

func (s *queryService) ListPages(ctx context.Context, limit, offset int) ([]dto.PageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	pages, err := uow.PageRepository().FindAll(ctx,
		specification.OrderBy{Field: "visited_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PageResponse, 0, len(pages))
	for _, page := range pages {
		out = append(out, toPageResponse(page))
	}
	return out, nil
}

func (s *queryService) GetPage(ctx context.Context, id uuid.UUID) (*dto.PageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil || page == nil {
		return nil, err
	}
	res := toPageResponse(page)
	return &res, nil
}

func (s *queryService) ListIntents(ctx context.Context, status string, limit, offset int) ([]dto.IntentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.OrderBy{Field: "last_updated", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	}
	if status != "" {
		specs = append(specs, specification.ByStatus{Status: status})
	}

	intents, err := uow.IntentRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]dto.IntentResponse, 0, len(intents))
	for _, intent := range intents {
		out = append(out, toIntentResponse(intent))
	}
	return out, nil
}

func (s *queryService) GetIntent(ctx context.Context, id uuid.UUID) (*dto.IntentDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	intent, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil || intent == nil {
		return nil, err
	}

	return &dto.IntentDetailResponse{
		IntentResponse: toIntentResponse(intent),
		LabelHistory:   intent.LabelHistory,
		PageIds:        intent.PageIds,
		Signals:        intent.Signals,
		Insights:       intent.Insights,
		NextSteps:      intent.NextSteps,
		MergedFrom:     intent.MergedFrom,
		MergedAt:       intent.MergedAt,
	}, nil
}

func (s *queryService) ListTasks(ctx context.Context, pageId, intentId *uuid.UUID, limit, offset int) ([]dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	}
	if pageId != nil {
		specs = append(specs, specification.TaskForPage{PageID: *pageId})
	}
	if intentId != nil {
		specs = append(specs, specification.TaskForIntent{IntentID: *intentId})
	}

	tasks, err := uow.TaskRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]dto.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task))
	}
	return out, nil
}

func (s *queryService) GetTask(ctx context.Context, id uuid.UUID) (*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil || task == nil {
		return nil, err
	}
	res := toTaskResponse(task)
	return &res, nil
}

func (s *queryService) ListPendingNudges(ctx context.Context) ([]dto.NudgeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	nudges, err := uow.NudgeRepository().FindAll(ctx,
		specification.NudgeByStatus{Status: entity.NudgeStatusPending},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]dto.NudgeResponse, 0, len(nudges))
	for _, nudge := range nudges {
		out = append(out, dto.NudgeResponse{
			Id:           nudge.Id,
			IntentId:     nudge.IntentId,
			Type:         nudge.Type,
			Priority:     nudge.Priority,
			Status:       nudge.Status,
			Message:      nudge.Message,
			Confidence:   nudge.Confidence,
			Data:         nudge.Data,
			SnoozedUntil: nudge.SnoozedUntil,
			CreatedAt:    nudge.CreatedAt,
		})
	}
	return out, nil
}

func toPageResponse(page *entity.Page) dto.PageResponse {
	res := dto.PageResponse{
		Id:          page.Id,
		Url:         page.Url,
		Title:       page.Title,
		Interaction: page.Interaction,
		Semantics:   page.Semantics,
		VisitedAt:   page.VisitedAt,
		CreatedAt:   page.CreatedAt,
		UpdatedAt:   page.UpdatedAt,
	}
	if page.Primary != nil {
		res.Primary = &dto.IntentAssignmentResponse{
			IntentId:     page.Primary.IntentId,
			Confidence:   page.Primary.Confidence,
			AssignedAt:   page.Primary.AssignedAt,
			AutoAssigned: page.Primary.AutoAssigned,
		}
	}
	for _, secondary := range page.Secondary {
		res.Secondary = append(res.Secondary, dto.IntentAssignmentResponse{
			IntentId:     secondary.IntentId,
			Confidence:   secondary.Confidence,
			AssignedAt:   secondary.AssignedAt,
			AutoAssigned: secondary.AutoAssigned,
		})
	}
	return res
}

func toIntentResponse(intent *entity.Intent) dto.IntentResponse {
	return dto.IntentResponse{
		Id:              intent.Id,
		Label:           intent.Label,
		LabelConfidence: intent.LabelConfidence,
		Status:          intent.Status,
		PageCount:       intent.PageCount,
		Goal:            intent.Goal,
		Summary:         intent.Summary,
		FirstSeen:       intent.FirstSeen,
		LastUpdated:     intent.LastUpdated,
		MergedInto:      intent.MergedInto,
	}
}

func toTaskResponse(task *entity.Task) dto.TaskResponse {
	res := dto.TaskResponse{
		Id:          task.Id,
		Type:        task.Type,
		PageId:      task.PageId,
		IntentId:    task.IntentId,
		Priority:    task.Priority,
		Status:      task.Status,
		RetryCount:  task.RetryCount,
		DependsOn:   task.DependsOn,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
	if task.Status == entity.TaskStatusQueued {
		next := task.NextRunAt
		res.NextRunAt = &next
	}
	if task.Error != nil {
		res.ErrorKind = task.Error.Kind
		res.ErrorMessage = task.Error.Message
	}
	if task.StructuredOutput != nil {
		if raw, err := json.Marshal(task.StructuredOutput); err == nil {
			res.Output = raw
		}
	}
	return res
}
