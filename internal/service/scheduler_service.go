package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-intent-be/internal/config"
	"ai-intent-be/internal/dto"
	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/pkg/logger"
	"ai-intent-be/internal/repository/specification"
	"ai-intent-be/internal/repository/unitofwork"
)

type ISchedulerService interface {
	// Enqueue submits a task. Submitting an equivalent task (same type, same
	// target) while one is still queued or processing returns the pending
	// task instead of creating a duplicate.
	Enqueue(ctx context.Context, taskType string, pageId, intentId *uuid.UUID, priority int, dependsOn []uuid.UUID) (*dto.EnqueueTaskResponse, error)

	// Run drives the poll/dispatch loop until ctx is cancelled.
	Run(ctx context.Context)

	// RecoverAbandoned requeues tasks left processing by a previous run.
	RecoverAbandoned(ctx context.Context) (int, error)

	Cancel(ctx context.Context, taskId uuid.UUID) error
}

// taskHandler executes one task type and returns its structured output.
type taskHandler func(ctx context.Context, task *entity.Task) (map[string]interface{}, error)

type schedulerService struct {
	uowFactory unitofwork.RepositoryFactory
	cfg        config.SchedulerConfig
	log        logger.ILogger

	handlers map[string]taskHandler

	enqueueMu sync.Mutex
	locks     *entityLocker
	sem       chan struct{}
	cancelled sync.Map // task id -> struct{}
	inFlight  sync.WaitGroup
}

func NewSchedulerService(
	uowFactory unitofwork.RepositoryFactory,
	cfg config.SchedulerConfig,
	log logger.ILogger,
) *schedulerService {
	return &schedulerService{
		uowFactory: uowFactory,
		cfg:        cfg,
		log:        log,
		handlers:   make(map[string]taskHandler),
		locks:      newEntityLocker(),
		sem:        make(chan struct{}, cfg.MaxConcurrent),
	}
}

// RegisterHandler binds a task type to its executor. Handlers live in
// enrichment_jobs.go; registration happens in the bootstrap container.
func (s *schedulerService) RegisterHandler(taskType string, handler taskHandler) {
	s.handlers[taskType] = handler
}

func (s *schedulerService) Enqueue(ctx context.Context, taskType string, pageId, intentId *uuid.UUID, priority int, dependsOn []uuid.UUID) (*dto.EnqueueTaskResponse, error) {
	s.enqueueMu.Lock()
	defer s.enqueueMu.Unlock()

	candidate := entity.Task{
		Id:        uuid.New(),
		Type:      taskType,
		PageId:    pageId,
		IntentId:  intentId,
		Priority:  priority,
		Status:    entity.TaskStatusQueued,
		DependsOn: dependsOn,
		NextRunAt: time.Now(),
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	pending, err := uow.TaskRepository().FindAll(ctx,
		specification.TaskByType{Type: taskType},
		specification.TaskByStatusIn{Statuses: []string{entity.TaskStatusQueued, entity.TaskStatusProcessing}},
	)
	if err != nil {
		return nil, err
	}
	for _, existing := range pending {
		if existing.TargetKey() == candidate.TargetKey() {
			return &dto.EnqueueTaskResponse{Id: existing.Id, Outcome: "duplicate"}, nil
		}
	}

	if err := uow.TaskRepository().Create(ctx, &candidate); err != nil {
		return nil, err
	}
	return &dto.EnqueueTaskResponse{Id: candidate.Id, Outcome: "enqueued"}, nil
}

func (s *schedulerService) RecoverAbandoned(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	abandoned, err := uow.TaskRepository().FindAll(ctx,
		specification.TaskByStatus{Status: entity.TaskStatusProcessing},
	)
	if err != nil {
		return 0, err
	}
	for _, task := range abandoned {
		task.Status = entity.TaskStatusQueued
		task.StartedAt = nil
		task.NextRunAt = time.Now()
		if err := uow.TaskRepository().Update(ctx, task); err != nil {
			return 0, err
		}
	}
	if len(abandoned) > 0 {
		s.log.Info("scheduler", "requeued abandoned tasks", map[string]interface{}{
			"count": len(abandoned),
		})
	}
	return len(abandoned), nil
}

func (s *schedulerService) Cancel(ctx context.Context, taskId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: taskId})
	if err != nil {
		return err
	}
	if task == nil || task.IsTerminal() {
		return nil
	}

	if task.Status == entity.TaskStatusQueued {
		return uow.TaskRepository().Delete(ctx, taskId)
	}

	// Processing: the attempt is abandoned; the worker discards its result
	// when it finishes.
	s.cancelled.Store(taskId, struct{}{})
	return nil
}

func (s *schedulerService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.inFlight.Wait()
			return
		case <-ticker.C:
			s.dispatchDue(ctx)
		}
	}
}

func (s *schedulerService) dispatchDue(ctx context.Context) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	due, err := uow.TaskRepository().FindAll(ctx,
		specification.TaskByStatus{Status: entity.TaskStatusQueued},
		specification.TaskDueBefore{Now: time.Now()},
		specification.SchedulerOrder{},
	)
	if err != nil {
		s.log.Error("scheduler", "failed to poll queue", map[string]interface{}{"error": err.Error()})
		return
	}

	for _, task := range due {
		ready, err := s.resolveDependencies(ctx, uow, task)
		if err != nil {
			s.log.Error("scheduler", "dependency check failed", map[string]interface{}{
				"task_id": task.Id, "error": err.Error(),
			})
			continue
		}
		if !ready {
			continue
		}

		select {
		case s.sem <- struct{}{}:
		default:
			return // all workers busy; next tick picks up from here
		}

		task.Status = entity.TaskStatusProcessing
		now := time.Now()
		task.StartedAt = &now
		if err := uow.TaskRepository().Update(ctx, task); err != nil {
			<-s.sem
			s.log.Error("scheduler", "failed to claim task", map[string]interface{}{
				"task_id": task.Id, "error": err.Error(),
			})
			continue
		}

		s.inFlight.Add(1)
		go s.execute(ctx, task)
	}
}

// resolveDependencies reports whether the task may run now. A failed
// required dependency fails the dependent immediately, without running it
// and without consuming a retry.
func (s *schedulerService) resolveDependencies(ctx context.Context, uow unitofwork.UnitOfWork, task *entity.Task) (bool, error) {
	if len(task.DependsOn) == 0 {
		return true, nil
	}
	deps, err := uow.TaskRepository().FindAll(ctx, specification.ByIDs{IDs: task.DependsOn})
	if err != nil {
		return false, err
	}

	found := make(map[uuid.UUID]*entity.Task, len(deps))
	for _, dep := range deps {
		found[dep.Id] = dep
	}
	for _, depId := range task.DependsOn {
		dep, ok := found[depId]
		if !ok || dep.Status == entity.TaskStatusFailed {
			task.Status = entity.TaskStatusFailed
			task.Error = &entity.TaskError{
				Kind:    entity.TaskErrorDependency,
				Message: "required dependency " + depId.String() + " failed",
			}
			now := time.Now()
			task.CompletedAt = &now
			return false, uow.TaskRepository().Update(ctx, task)
		}
		if dep.Status != entity.TaskStatusCompleted {
			return false, nil
		}
	}
	return true, nil
}

func (s *schedulerService) execute(ctx context.Context, task *entity.Task) {
	defer s.inFlight.Done()
	defer func() { <-s.sem }()

	// One enrichment job per entity at a time.
	unlock := s.locks.lock(task.TargetKey())
	defer unlock()

	handler, ok := s.handlers[task.Type]
	if !ok {
		s.finishFailed(ctx, task, &entity.TaskError{
			Kind:    entity.TaskErrorPermanent,
			Message: "no handler registered for task type " + task.Type,
		})
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	output, err := handler(callCtx, task)
	cancel()

	// A cancelled task's late result is discarded no matter how the attempt
	// ended.
	if _, wasCancelled := s.cancelled.LoadAndDelete(task.Id); wasCancelled {
		s.finishFailed(ctx, task, &entity.TaskError{
			Kind:    entity.TaskErrorPermanent,
			Message: "cancelled while processing",
		})
		return
	}

	if err == nil {
		task.Status = entity.TaskStatusCompleted
		task.StructuredOutput = output
		task.Error = nil
		now := time.Now()
		task.CompletedAt = &now
		s.persist(ctx, task)
		return
	}

	taskErr := classifyTaskError(err)
	if taskErr.Kind == entity.TaskErrorTransient && task.RetryCount < s.cfg.MaxRetries {
		task.RetryCount++
		task.Status = entity.TaskStatusQueued
		task.Error = taskErr
		task.StartedAt = nil
		task.NextRunAt = time.Now().Add(s.backoff(task.RetryCount))
		s.log.Warn("scheduler", "task retry scheduled", map[string]interface{}{
			"task_id":     task.Id,
			"type":        task.Type,
			"retry_count": task.RetryCount,
			"error":       taskErr.Message,
		})
		s.persist(ctx, task)
		return
	}

	s.finishFailed(ctx, task, taskErr)
}

// backoff doubles per attempt: base, 2x, 4x...
func (s *schedulerService) backoff(retryCount int) time.Duration {
	d := s.cfg.BackoffBase
	for i := 1; i < retryCount; i++ {
		d *= 2
	}
	return d
}

func (s *schedulerService) finishFailed(ctx context.Context, task *entity.Task, taskErr *entity.TaskError) {
	task.Status = entity.TaskStatusFailed
	task.Error = taskErr
	now := time.Now()
	task.CompletedAt = &now
	s.log.Error("scheduler", "task failed", map[string]interface{}{
		"task_id": task.Id,
		"type":    task.Type,
		"kind":    taskErr.Kind,
		"error":   taskErr.Message,
	})
	s.persist(ctx, task)
}

func (s *schedulerService) persist(ctx context.Context, task *entity.Task) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TaskRepository().Update(ctx, task); err != nil {
		s.log.Error("scheduler", "failed to persist task state", map[string]interface{}{
			"task_id": task.Id, "error": err.Error(),
		})
	}
}
