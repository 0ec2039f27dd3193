package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-intent-be/internal/config"
	"ai-intent-be/internal/constant"
	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/repository/memory"
	"ai-intent-be/internal/repository/specification"
)

type suggestionFixture struct {
	factory    *memory.Factory
	suggestion ISuggestionService
}

func newSuggestionFixture(t *testing.T) *suggestionFixture {
	t.Helper()
	factory := memory.NewFactory()
	_, publisher := newTestBus()
	store := NewStoreService(
		factory,
		memory.NewVisitCache(30*time.Second),
		30*time.Second,
		publisher,
		nil,
		nopLogger{},
	)
	detector := NewDetectorService(factory, store, &stubLLM{response: `{"merge": false}`}, testDetectorConfig(), nopLogger{})
	suggestion := NewSuggestionService(factory, detector, nil, nil, config.SuggestionConfig{
		DailyCap:       3,
		DormantAfter:   72 * time.Hour,
		ExpireAfter:    720 * time.Hour,
		MilestoneFloor: 0.6,
	}, nopLogger{})
	return &suggestionFixture{factory: factory, suggestion: suggestion}
}

func seedIntentWithStatus(t *testing.T, f *suggestionFixture, label, status string, lastUpdated time.Time) uuid.UUID {
	t.Helper()
	intent := &entity.Intent{
		Id:          uuid.New(),
		Label:       label,
		Status:      status,
		FirstSeen:   lastUpdated,
		LastUpdated: lastUpdated,
		CreatedAt:   lastUpdated,
	}
	ctx := context.Background()
	require.NoError(t, f.factory.NewUnitOfWork(ctx).IntentRepository().Create(ctx, intent))
	return intent.Id
}

func pendingNudges(t *testing.T, f *suggestionFixture) []*entity.Nudge {
	t.Helper()
	ctx := context.Background()
	nudges, err := f.factory.NewUnitOfWork(ctx).NudgeRepository().FindAll(ctx,
		specification.NudgeByStatus{Status: entity.NudgeStatusPending},
	)
	require.NoError(t, err)
	return nudges
}

func TestRun_DormantReminderPriorityTiers(t *testing.T) {
	f := newSuggestionFixture(t)
	now := time.Now()

	lowId := seedIntentWithStatus(t, f, "barely idle", entity.IntentStatusDormant, now.Add(-4*24*time.Hour))
	mediumId := seedIntentWithStatus(t, f, "week idle", entity.IntentStatusDormant, now.Add(-8*24*time.Hour))
	highId := seedIntentWithStatus(t, f, "long idle", entity.IntentStatusDormant, now.Add(-20*24*time.Hour))

	created, err := f.suggestion.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	byIntent := map[uuid.UUID]*entity.Nudge{}
	for _, n := range pendingNudges(t, f) {
		byIntent[n.IntentId] = n
	}
	require.Len(t, byIntent, 3)
	assert.Equal(t, entity.NudgePriorityLow, byIntent[lowId].Priority)
	assert.Equal(t, entity.NudgePriorityMedium, byIntent[mediumId].Priority)
	assert.Equal(t, entity.NudgePriorityHigh, byIntent[highId].Priority)
	for _, n := range byIntent {
		assert.Equal(t, entity.NudgeTypeDormantReminder, n.Type)
	}
}

func TestRun_SecondRunRefreshesOnlyChangedIntents(t *testing.T) {
	f := newSuggestionFixture(t)
	ctx := context.Background()
	intentId := seedIntentWithStatus(t, f, "stalled research", entity.IntentStatusDormant, time.Now().Add(-10*24*time.Hour))

	created, err := f.suggestion.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	// Unchanged intent: no duplicate and no refresh churn.
	created, err = f.suggestion.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	nudges := pendingNudges(t, f)
	require.Len(t, nudges, 1)
	assert.Nil(t, nudges[0].UpdatedAt, "an unchanged intent must not rewrite its nudge")

	// Material change to the backing intent: the nudge is refreshed in place
	// without consuming budget.
	repo := f.factory.NewUnitOfWork(ctx).IntentRepository()
	intent, err := repo.FindOne(ctx, specification.ByID{ID: intentId})
	require.NoError(t, err)
	intent.LastUpdated = time.Now()
	require.NoError(t, repo.Update(ctx, intent))

	created, err = f.suggestion.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created, "a refreshed nudge must not consume budget")

	nudges = pendingNudges(t, f)
	require.Len(t, nudges, 1)
	assert.Equal(t, intentId, nudges[0].IntentId)
	assert.NotNil(t, nudges[0].UpdatedAt)
}

func TestRun_SnoozedNudgeBlocksRecreation(t *testing.T) {
	f := newSuggestionFixture(t)
	ctx := context.Background()
	intentId := seedIntentWithStatus(t, f, "stalled research", entity.IntentStatusDormant, time.Now().Add(-10*24*time.Hour))

	created, err := f.suggestion.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, created)
	nudges := pendingNudges(t, f)
	require.Len(t, nudges, 1)

	require.NoError(t, f.suggestion.Snooze(ctx, nudges[0].Id, time.Now().Add(24*time.Hour)))

	created, err = f.suggestion.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created, "a live snooze must keep its key quiet")
	assert.Empty(t, pendingNudges(t, f))

	snoozed, err := f.factory.NewUnitOfWork(ctx).NudgeRepository().FindOne(ctx,
		specification.NudgeByIntentAndType{IntentID: intentId, Type: entity.NudgeTypeDormantReminder},
	)
	require.NoError(t, err)
	assert.Equal(t, entity.NudgeStatusSnoozed, snoozed.Status)
}

func TestRun_ElapsedSnoozeRevivesSameNudge(t *testing.T) {
	f := newSuggestionFixture(t)
	ctx := context.Background()
	seedIntentWithStatus(t, f, "stalled research", entity.IntentStatusDormant, time.Now().Add(-10*24*time.Hour))

	created, err := f.suggestion.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, created)
	original := pendingNudges(t, f)[0]

	require.NoError(t, f.suggestion.Snooze(ctx, original.Id, time.Now().Add(-time.Minute)))

	created, err = f.suggestion.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created, "a revived nudge is not a new one")

	nudges := pendingNudges(t, f)
	require.Len(t, nudges, 1)
	assert.Equal(t, original.Id, nudges[0].Id)
	assert.Nil(t, nudges[0].SnoozedUntil)
}

func TestRun_DailyCapBoundsCreation(t *testing.T) {
	f := newSuggestionFixture(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		seedIntentWithStatus(t, f, "idle topic", entity.IntentStatusDormant, now.Add(-time.Duration(5+i)*24*time.Hour))
	}

	created, err := f.suggestion.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Len(t, pendingNudges(t, f), 3)

	// The cap is per day, so an immediate re-run creates nothing new.
	created, err = f.suggestion.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, pendingNudges(t, f), 3)
}

func seedMilestoneCheck(t *testing.T, f *suggestionFixture, intentId uuid.UUID, output map[string]interface{}) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	task := &entity.Task{
		Id:               uuid.New(),
		Type:             constant.TaskMilestoneCheck,
		IntentId:         &intentId,
		Status:           entity.TaskStatusCompleted,
		StructuredOutput: output,
		CreatedAt:        now,
		CompletedAt:      &now,
	}
	require.NoError(t, f.factory.NewUnitOfWork(ctx).TaskRepository().Create(ctx, task))
}

func TestRun_MilestoneNudgeFromCompletedCheck(t *testing.T) {
	f := newSuggestionFixture(t)
	now := time.Now()

	confident := seedIntentWithStatus(t, f, "learn gorm", entity.IntentStatusActive, now)
	seedMilestoneCheck(t, f, confident, map[string]interface{}{
		"completed":      false,
		"next_milestone": "Compare eager loading strategies",
		"confidence":     0.8,
	})

	hesitant := seedIntentWithStatus(t, f, "learn fiber", entity.IntentStatusActive, now)
	seedMilestoneCheck(t, f, hesitant, map[string]interface{}{
		"completed":      false,
		"next_milestone": "Something vague",
		"confidence":     0.4,
	})

	created, err := f.suggestion.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	nudges := pendingNudges(t, f)
	require.Len(t, nudges, 1)
	assert.Equal(t, confident, nudges[0].IntentId)
	assert.Equal(t, entity.NudgeTypeMilestone, nudges[0].Type)
	assert.Contains(t, nudges[0].Message, "Compare eager loading strategies")
}

func TestNudgeLifecycleActions(t *testing.T) {
	f := newSuggestionFixture(t)
	now := time.Now()
	for _, label := range []string{"one", "two", "three"} {
		seedIntentWithStatus(t, f, label, entity.IntentStatusDormant, now.Add(-10*24*time.Hour))
	}

	ctx := context.Background()
	created, err := f.suggestion.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, created)
	nudges := pendingNudges(t, f)
	require.Len(t, nudges, 3)

	until := now.Add(48 * time.Hour)
	require.NoError(t, f.suggestion.Acknowledge(ctx, nudges[0].Id))
	require.NoError(t, f.suggestion.Snooze(ctx, nudges[1].Id, until))
	require.NoError(t, f.suggestion.Dismiss(ctx, nudges[2].Id))

	repo := f.factory.NewUnitOfWork(ctx).NudgeRepository()
	acked, err := repo.FindOne(ctx, specification.ByID{ID: nudges[0].Id})
	require.NoError(t, err)
	assert.Equal(t, entity.NudgeStatusAcknowledged, acked.Status)

	snoozed, err := repo.FindOne(ctx, specification.ByID{ID: nudges[1].Id})
	require.NoError(t, err)
	assert.Equal(t, entity.NudgeStatusSnoozed, snoozed.Status)
	require.NotNil(t, snoozed.SnoozedUntil)
	assert.WithinDuration(t, until, *snoozed.SnoozedUntil, time.Second)

	dismissed, err := repo.FindOne(ctx, specification.ByID{ID: nudges[2].Id})
	require.NoError(t, err)
	assert.Equal(t, entity.NudgeStatusDismissed, dismissed.Status)
}
