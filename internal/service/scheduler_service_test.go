package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-intent-be/internal/config"
	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/repository/memory"
	"ai-intent-be/internal/repository/specification"
)

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		MaxConcurrent: 1, // serial execution keeps ordering assertions exact
		MaxRetries:    3,
		BackoffBase:   time.Millisecond,
		CallTimeout:   time.Second,
		PollInterval:  5 * time.Millisecond,
	}
}

type schedulerFixture struct {
	factory   *memory.Factory
	scheduler *schedulerService

	mu       sync.Mutex
	executed []string
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	factory := memory.NewFactory()
	f := &schedulerFixture{
		factory:   factory,
		scheduler: NewSchedulerService(factory, testSchedulerConfig(), nopLogger{}),
	}
	return f
}

func (f *schedulerFixture) recordingHandler(name string, err error) taskHandler {
	return func(ctx context.Context, task *entity.Task) (map[string]interface{}, error) {
		f.mu.Lock()
		f.executed = append(f.executed, name)
		f.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"ran": name}, nil
	}
}

// drain runs dispatch cycles until the queue settles.
func (f *schedulerFixture) drain(ctx context.Context, cycles int) {
	for i := 0; i < cycles; i++ {
		f.scheduler.dispatchDue(ctx)
		f.scheduler.inFlight.Wait()
		time.Sleep(2 * time.Millisecond) // let retry backoff elapse
	}
}

func (f *schedulerFixture) task(ctx context.Context, t *testing.T, id uuid.UUID) *entity.Task {
	t.Helper()
	task, err := f.factory.NewUnitOfWork(ctx).TaskRepository().FindOne(ctx, specification.ByID{ID: id})
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}

func TestEnqueue_DuplicatePendingTaskIsRejected(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	pageId := uuid.New()

	first, err := f.scheduler.Enqueue(ctx, "extract", &pageId, nil, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "enqueued", first.Outcome)

	second, err := f.scheduler.Enqueue(ctx, "extract", &pageId, nil, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "duplicate", second.Outcome)
	assert.Equal(t, first.Id, second.Id)

	// A different target is a different task.
	otherPage := uuid.New()
	third, err := f.scheduler.Enqueue(ctx, "extract", &otherPage, nil, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "enqueued", third.Outcome)
}

func TestDispatch_PriorityThenFIFO(t *testing.T) {
	f := newSchedulerFixture(t)
	f.scheduler.RegisterHandler("job", f.recordingHandler("job", nil))
	ctx := context.Background()

	ids := make(map[string]uuid.UUID)
	for _, spec := range []struct {
		name     string
		priority int
	}{
		{"p5", 5}, {"p1", 1}, {"p3", 3}, {"p1-later", 1},
	} {
		target := uuid.New()
		res, err := f.scheduler.Enqueue(ctx, "job", &target, nil, spec.priority, nil)
		require.NoError(t, err)
		ids[spec.name] = res.Id
		time.Sleep(time.Millisecond) // distinct enqueue times for the FIFO tie-break
	}

	f.drain(ctx, 8)

	var completedAt []time.Time
	for _, name := range []string{"p1", "p1-later", "p3", "p5"} {
		task := f.task(ctx, t, ids[name])
		assert.Equal(t, entity.TaskStatusCompleted, task.Status, name)
		require.NotNil(t, task.StartedAt, name)
		completedAt = append(completedAt, *task.StartedAt)
	}
	for i := 1; i < len(completedAt); i++ {
		assert.False(t, completedAt[i].Before(completedAt[i-1]),
			"tasks must start in priority order, FIFO within a priority")
	}
}

func TestDispatch_FailedDependencyFailsDependentWithoutRunning(t *testing.T) {
	f := newSchedulerFixture(t)
	f.scheduler.RegisterHandler("parent", f.recordingHandler("parent", &entity.TaskError{
		Kind: entity.TaskErrorPermanent, Message: "boom",
	}))
	f.scheduler.RegisterHandler("child", f.recordingHandler("child", nil))
	ctx := context.Background()

	target := uuid.New()
	parent, err := f.scheduler.Enqueue(ctx, "parent", &target, nil, 1, nil)
	require.NoError(t, err)
	child, err := f.scheduler.Enqueue(ctx, "child", &target, nil, 2, []uuid.UUID{parent.Id})
	require.NoError(t, err)

	f.drain(ctx, 6)

	parentTask := f.task(ctx, t, parent.Id)
	assert.Equal(t, entity.TaskStatusFailed, parentTask.Status)
	assert.Equal(t, entity.TaskErrorPermanent, parentTask.Error.Kind)

	childTask := f.task(ctx, t, child.Id)
	assert.Equal(t, entity.TaskStatusFailed, childTask.Status)
	require.NotNil(t, childTask.Error)
	assert.Equal(t, entity.TaskErrorDependency, childTask.Error.Kind)
	assert.Equal(t, 0, childTask.RetryCount, "a dependency failure consumes no retry")

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.NotContains(t, f.executed, "child", "the dependent must never run")
}

func TestDispatch_DependentWaitsForCompletion(t *testing.T) {
	f := newSchedulerFixture(t)
	f.scheduler.RegisterHandler("parent", f.recordingHandler("parent", nil))
	f.scheduler.RegisterHandler("child", f.recordingHandler("child", nil))
	ctx := context.Background()

	target := uuid.New()
	parent, err := f.scheduler.Enqueue(ctx, "parent", &target, nil, 2, nil)
	require.NoError(t, err)
	// Higher priority than the parent, but gated on it.
	child, err := f.scheduler.Enqueue(ctx, "child", &target, nil, 1, []uuid.UUID{parent.Id})
	require.NoError(t, err)

	f.drain(ctx, 6)

	assert.Equal(t, entity.TaskStatusCompleted, f.task(ctx, t, parent.Id).Status)
	assert.Equal(t, entity.TaskStatusCompleted, f.task(ctx, t, child.Id).Status)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []string{"parent", "child"}, f.executed)
}

func TestDispatch_TransientErrorRetriesUpToCap(t *testing.T) {
	f := newSchedulerFixture(t)
	f.scheduler.RegisterHandler("flaky", f.recordingHandler("flaky", errors.New("429 rate limit exceeded")))
	ctx := context.Background()

	target := uuid.New()
	res, err := f.scheduler.Enqueue(ctx, "flaky", &target, nil, 1, nil)
	require.NoError(t, err)

	f.drain(ctx, 20)

	task := f.task(ctx, t, res.Id)
	assert.Equal(t, entity.TaskStatusFailed, task.Status)
	assert.Equal(t, 3, task.RetryCount, "retry count must stop exactly at the cap")
	require.NotNil(t, task.Error)
	assert.Equal(t, entity.TaskErrorTransient, task.Error.Kind)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Len(t, f.executed, 4, "initial attempt plus three retries")
}

func TestDispatch_PermanentErrorFailsImmediately(t *testing.T) {
	f := newSchedulerFixture(t)
	f.scheduler.RegisterHandler("broken", f.recordingHandler("broken", errors.New("validation: missing field")))
	ctx := context.Background()

	target := uuid.New()
	res, err := f.scheduler.Enqueue(ctx, "broken", &target, nil, 1, nil)
	require.NoError(t, err)

	f.drain(ctx, 5)

	task := f.task(ctx, t, res.Id)
	assert.Equal(t, entity.TaskStatusFailed, task.Status)
	assert.Equal(t, 0, task.RetryCount)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Len(t, f.executed, 1)
}

func TestRecoverAbandoned_RequeuesProcessingTasks(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	startedAt := time.Now().Add(-time.Minute)
	orphan := &entity.Task{
		Id:        uuid.New(),
		Type:      "job",
		Status:    entity.TaskStatusProcessing,
		StartedAt: &startedAt,
		NextRunAt: startedAt,
		CreatedAt: startedAt,
	}
	uow := f.factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.TaskRepository().Create(ctx, orphan))

	count, err := f.scheduler.RecoverAbandoned(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	task := f.task(ctx, t, orphan.Id)
	assert.Equal(t, entity.TaskStatusQueued, task.Status)
	assert.Nil(t, task.StartedAt)
}

func TestCancel_QueuedTaskIsRemoved(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	target := uuid.New()
	res, err := f.scheduler.Enqueue(ctx, "job", &target, nil, 1, nil)
	require.NoError(t, err)

	require.NoError(t, f.scheduler.Cancel(ctx, res.Id))

	task, err := f.factory.NewUnitOfWork(ctx).TaskRepository().FindOne(ctx, specification.ByID{ID: res.Id})
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestDispatch_BackoffDelaysRetry(t *testing.T) {
	f := newSchedulerFixture(t)
	f.scheduler.cfg.BackoffBase = time.Hour // too far out to retry in this test
	f.scheduler.RegisterHandler("flaky", f.recordingHandler("flaky", errors.New("timeout")))
	ctx := context.Background()

	target := uuid.New()
	res, err := f.scheduler.Enqueue(ctx, "flaky", &target, nil, 1, nil)
	require.NoError(t, err)

	f.drain(ctx, 4)

	task := f.task(ctx, t, res.Id)
	assert.Equal(t, entity.TaskStatusQueued, task.Status)
	assert.Equal(t, 1, task.RetryCount)
	assert.True(t, task.NextRunAt.After(time.Now().Add(30*time.Minute)))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Len(t, f.executed, 1, "backed-off task must not run before next_run_at")
}
