package memory

import (
	"context"
	"encoding/json"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/repository/contract"
	"ai-intent-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// TaskRepository is the in-memory contract.TaskRepository.
type TaskRepository struct {
	cache *cache.Cache
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func cloneTask(t *entity.Task) *entity.Task {
	data, _ := json.Marshal(t)
	var out entity.Task
	_ = json.Unmarshal(data, &out)
	return &out
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	if task.Id == uuid.Nil {
		task.Id = uuid.New()
	}
	r.cache.Set(task.Id.String(), cloneTask(task), cache.NoExpiration)
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) error {
	r.cache.Set(task.Id.String(), cloneTask(task), cache.NoExpiration)
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.cache.Delete(id.String())
	return nil
}

func (r *TaskRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Task, error) {
	tasks, err := r.FindAll(ctx, specs...)
	if err != nil || len(tasks) == 0 {
		return nil, err
	}
	return tasks[0], nil
}

func (r *TaskRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Task, error) {
	var out []*entity.Task
	for _, item := range r.cache.Items() {
		t := item.Object.(*entity.Task)
		if taskMatches(t, specs) {
			out = append(out, cloneTask(t))
		}
	}

	less := func(a, b *entity.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	for _, s := range specs {
		if _, ok := s.(specification.SchedulerOrder); ok {
			less = func(a, b *entity.Task) bool {
				if a.Priority != b.Priority {
					return a.Priority < b.Priority
				}
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
	}
	sortAndPage(specs, &out, less)
	return out, nil
}

func (r *TaskRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	tasks, err := r.FindAll(ctx, specs...)
	return int64(len(tasks)), err
}

func taskMatches(t *entity.Task, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if t.Id != spec.ID {
				return false
			}
		case specification.ByIDs:
			found := false
			for _, id := range spec.IDs {
				if t.Id == id {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.TaskByStatus:
			if t.Status != spec.Status {
				return false
			}
		case specification.TaskByStatusIn:
			found := false
			for _, st := range spec.Statuses {
				if t.Status == st {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.TaskByType:
			if t.Type != spec.Type {
				return false
			}
		case specification.TaskForPage:
			if t.PageId == nil || *t.PageId != spec.PageID {
				return false
			}
		case specification.TaskForIntent:
			if t.IntentId == nil || *t.IntentId != spec.IntentID {
				return false
			}
		case specification.TaskDueBefore:
			if t.NextRunAt.After(spec.Now) {
				return false
			}
		}
	}
	return true
}

var _ contract.TaskRepository = (*TaskRepository)(nil)
