package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-intent-be/internal/dto"
	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/repository/memory"
	"ai-intent-be/internal/repository/specification"
)

type storeFixture struct {
	factory *memory.Factory
	store   IStoreService
}

func newStoreFixture(t *testing.T) *storeFixture {
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
	return &storeFixture{factory: factory, store: store}
}

func ingestReq(url, title string, dwellMs int64, selections ...string) *dto.IngestPageRequest {
	return &dto.IngestPageRequest{
		Url:   url,
		Title: title,
		Interaction: dto.InteractionPayload{
			DwellTimeMs:    dwellMs,
			ScrollDepth:    0.4,
			ScrollDistance: 1000,
			TextSelections: selections,
		},
	}
}

func TestUpsertPage_CreatesNewPage(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	res, err := f.store.UpsertPage(ctx, ingestReq("https://go.dev/doc", "Go Docs", 5000))
	require.NoError(t, err)
	assert.Equal(t, "created", res.Outcome)

	page, err := f.factory.NewUnitOfWork(ctx).PageRepository().FindOne(ctx, specification.ByID{ID: res.Id})
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, "Go Docs", page.Title)
	assert.Greater(t, page.Interaction.EngagementScore, 0.0)
}

func TestUpsertPage_MergesSameURLWithinWindow(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	first, err := f.store.UpsertPage(ctx, ingestReq("https://go.dev/doc", "Go Docs", 5000, "goroutines"))
	require.NoError(t, err)

	req := ingestReq("https://go.dev/doc", "Go Docs", 3000, "channels")
	req.Interaction.ScrollDepth = 0.9
	second, err := f.store.UpsertPage(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "merged", second.Outcome)
	assert.Equal(t, first.Id, second.Id)

	uow := f.factory.NewUnitOfWork(ctx)
	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: first.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(8000), page.Interaction.DwellTimeMs)                      // summed
	assert.Equal(t, 0.9, page.Interaction.ScrollDepth)                              // maxed
	assert.Equal(t, []string{"goroutines", "channels"}, page.Interaction.TextSelections) // concatenated

	count, err := uow.PageRepository().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpsertPage_SameIdUpdateKeepsEnrichment(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	created, err := f.store.UpsertPage(ctx, ingestReq("https://go.dev/doc", "Go Docs", 5000))
	require.NoError(t, err)

	sem := &entity.SemanticFeatures{Concepts: []string{"golang", "concurrency"}}
	require.NoError(t, f.store.SetPageSemantics(ctx, created.Id, sem, nil))

	req := ingestReq("https://go.dev/doc", "Go Documentation", 9000)
	req.Id = &created.Id
	updated, err := f.store.UpsertPage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Outcome)

	page, err := f.factory.NewUnitOfWork(ctx).PageRepository().FindOne(ctx, specification.ByID{ID: created.Id})
	require.NoError(t, err)
	assert.Equal(t, "Go Documentation", page.Title)
	assert.Equal(t, int64(14000), page.Interaction.DwellTimeMs) // 5000 + 9000
	require.NotNil(t, page.Semantics, "enrichment must survive a same-id update")
	assert.Equal(t, []string{"golang", "concurrency"}, page.Semantics.Concepts)
}

func TestUpsertPage_SameIdExitFlushNeverRegressesMetrics(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	first := ingestReq("https://go.dev/doc", "Go Docs", 5000, "goroutines")
	first.Interaction.ScrollDepth = 0.9
	created, err := f.store.UpsertPage(ctx, first)
	require.NoError(t, err)

	// A page-exit flush can carry lower momentary metrics than the visit
	// accumulated so far.
	flush := ingestReq("https://go.dev/doc", "Go Docs", 2000, "channels")
	flush.Interaction.ScrollDepth = 0.2
	flush.Id = &created.Id
	updated, err := f.store.UpsertPage(ctx, flush)
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Outcome)

	page, err := f.factory.NewUnitOfWork(ctx).PageRepository().FindOne(ctx, specification.ByID{ID: created.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), page.Interaction.DwellTimeMs, "dwell time is summed")
	assert.Equal(t, 0.9, page.Interaction.ScrollDepth, "scroll depth keeps its max")
	assert.Equal(t, float64(2000), page.Interaction.ScrollDistance, "scroll distance is summed")
	assert.Equal(t, []string{"goroutines", "channels"}, page.Interaction.TextSelections)
}

func TestCreateIntentForPage_AssignsAndCounts(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	created, err := f.store.UpsertPage(ctx, ingestReq("https://go.dev/doc", "Go Docs", 5000))
	require.NoError(t, err)

	intentId, err := f.store.CreateIntentForPage(ctx, created.Id, "learning go", 0.7)
	require.NoError(t, err)

	uow := f.factory.NewUnitOfWork(ctx)
	intent, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: intentId})
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, entity.IntentStatusEmerging, intent.Status)
	assert.Equal(t, 1, intent.PageCount)
	assert.Len(t, intent.PageIds, intent.PageCount)
	assert.Len(t, intent.LabelHistory, 1)

	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: created.Id})
	require.NoError(t, err)
	require.NotNil(t, page.Primary)
	assert.Equal(t, intentId, page.Primary.IntentId)
}

func TestAssignPrimaryIntent_ReassignmentKeepsInvariant(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	pageA, err := f.store.UpsertPage(ctx, ingestReq("https://a.dev", "A", 1000))
	require.NoError(t, err)
	pageB, err := f.store.UpsertPage(ctx, ingestReq("https://b.dev", "B", 1000))
	require.NoError(t, err)

	intentOne, err := f.store.CreateIntentForPage(ctx, pageA.Id, "one", 0.6)
	require.NoError(t, err)
	intentTwo, err := f.store.CreateIntentForPage(ctx, pageB.Id, "two", 0.6)
	require.NoError(t, err)

	// Move page A over to the second intent.
	require.NoError(t, f.store.AssignPrimaryIntent(ctx, pageA.Id, intentTwo, 0.8, true))

	uow := f.factory.NewUnitOfWork(ctx)
	one, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: intentOne})
	require.NoError(t, err)
	two, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: intentTwo})
	require.NoError(t, err)

	assert.Equal(t, 0, one.PageCount)
	assert.Len(t, one.PageIds, one.PageCount)
	assert.Equal(t, 2, two.PageCount)
	assert.Len(t, two.PageIds, two.PageCount)
}

func TestAssignPrimaryIntent_EmergingBecomesActive(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	seed, err := f.store.UpsertPage(ctx, ingestReq("https://p0.dev", "P0", 1000))
	require.NoError(t, err)
	intentId, err := f.store.CreateIntentForPage(ctx, seed.Id, "topic", 0.6)
	require.NoError(t, err)

	urls := []string{"https://p1.dev", "https://p2.dev", "https://p3.dev", "https://p4.dev"}
	for _, url := range urls {
		page, err := f.store.UpsertPage(ctx, ingestReq(url, "P", 1000))
		require.NoError(t, err)
		require.NoError(t, f.store.AssignPrimaryIntent(ctx, page.Id, intentId, 0.7, true))
	}

	intent, err := f.factory.NewUnitOfWork(ctx).IntentRepository().FindOne(ctx, specification.ByID{ID: intentId})
	require.NoError(t, err)
	assert.Equal(t, entity.IntentStatusActive, intent.Status)
	assert.Equal(t, entity.EmergingPageThreshold, intent.PageCount)
}

func TestMergeIntents_MovesPagesAndIsIdempotent(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	pageA, err := f.store.UpsertPage(ctx, ingestReq("https://a.dev", "A", 1000))
	require.NoError(t, err)
	pageB, err := f.store.UpsertPage(ctx, ingestReq("https://b.dev", "B", 1000))
	require.NoError(t, err)

	winnerId, err := f.store.CreateIntentForPage(ctx, pageA.Id, "winner", 0.6)
	require.NoError(t, err)
	loserId, err := f.store.CreateIntentForPage(ctx, pageB.Id, "loser", 0.6)
	require.NoError(t, err)

	require.NoError(t, f.store.MergeIntents(ctx, loserId, winnerId))

	uow := f.factory.NewUnitOfWork(ctx)
	winner, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: winnerId})
	require.NoError(t, err)
	loser, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: loserId})
	require.NoError(t, err)

	assert.Equal(t, entity.IntentStatusMerged, loser.Status)
	require.NotNil(t, loser.MergedInto)
	assert.Equal(t, winnerId, *loser.MergedInto)
	assert.NotNil(t, loser.MergedAt)

	assert.Equal(t, 2, winner.PageCount)
	assert.Len(t, winner.PageIds, winner.PageCount)
	assert.Contains(t, winner.MergedFrom, loserId)

	movedPage, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: pageB.Id})
	require.NoError(t, err)
	assert.Equal(t, winnerId, movedPage.Primary.IntentId)

	// Merging again must change nothing.
	require.NoError(t, f.store.MergeIntents(ctx, loserId, winnerId))
	winnerAgain, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: winnerId})
	require.NoError(t, err)
	assert.Equal(t, winner.PageCount, winnerAgain.PageCount)
	assert.Len(t, winnerAgain.MergedFrom, 1)
}

func TestAssignPrimaryIntent_MergedIntentRedirectsToWinner(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	pageA, err := f.store.UpsertPage(ctx, ingestReq("https://a.dev", "A", 1000))
	require.NoError(t, err)
	pageB, err := f.store.UpsertPage(ctx, ingestReq("https://b.dev", "B", 1000))
	require.NoError(t, err)
	pageC, err := f.store.UpsertPage(ctx, ingestReq("https://c.dev", "C", 1000))
	require.NoError(t, err)

	winnerId, err := f.store.CreateIntentForPage(ctx, pageA.Id, "winner", 0.6)
	require.NoError(t, err)
	loserId, err := f.store.CreateIntentForPage(ctx, pageB.Id, "loser", 0.6)
	require.NoError(t, err)
	require.NoError(t, f.store.MergeIntents(ctx, loserId, winnerId))

	// Assignment against the merged loser lands on the winner.
	require.NoError(t, f.store.AssignPrimaryIntent(ctx, pageC.Id, loserId, 0.7, true))

	page, err := f.factory.NewUnitOfWork(ctx).PageRepository().FindOne(ctx, specification.ByID{ID: pageC.Id})
	require.NoError(t, err)
	assert.Equal(t, winnerId, page.Primary.IntentId)
}

func TestUpdateIntentFields_TerminalStaysTerminal(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	page, err := f.store.UpsertPage(ctx, ingestReq("https://a.dev", "A", 1000))
	require.NoError(t, err)
	intentId, err := f.store.CreateIntentForPage(ctx, page.Id, "topic", 0.6)
	require.NoError(t, err)

	status := entity.IntentStatusCompleted
	_, err = f.store.UpdateIntentFields(ctx, &dto.UpdateIntentRequest{Id: intentId, Status: &status})
	require.NoError(t, err)

	label := "renamed"
	_, err = f.store.UpdateIntentFields(ctx, &dto.UpdateIntentRequest{Id: intentId, Label: &label})
	assert.Error(t, err)
}

func TestRefreshIntentStatuses_TimeTransitions(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	uow := f.factory.NewUnitOfWork(ctx)

	now := time.Now()
	stale := &entity.Intent{
		Id:          uuid.New(),
		Label:       "stale",
		Status:      entity.IntentStatusActive,
		FirstSeen:   now.Add(-10 * 24 * time.Hour),
		LastUpdated: now.Add(-5 * 24 * time.Hour),
		CreatedAt:   now,
	}
	ancient := &entity.Intent{
		Id:          uuid.New(),
		Label:       "ancient",
		Status:      entity.IntentStatusDormant,
		FirstSeen:   now.Add(-90 * 24 * time.Hour),
		LastUpdated: now.Add(-60 * 24 * time.Hour),
		CreatedAt:   now,
	}
	done := &entity.Intent{
		Id:          uuid.New(),
		Label:       "done",
		Status:      entity.IntentStatusCompleted,
		FirstSeen:   now.Add(-90 * 24 * time.Hour),
		LastUpdated: now.Add(-60 * 24 * time.Hour),
		CreatedAt:   now,
	}
	require.NoError(t, uow.IntentRepository().Create(ctx, stale))
	require.NoError(t, uow.IntentRepository().Create(ctx, ancient))
	require.NoError(t, uow.IntentRepository().Create(ctx, done))

	changed, err := f.store.RefreshIntentStatuses(ctx, 72*time.Hour, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	refreshed, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: stale.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.IntentStatusDormant, refreshed.Status)

	expired, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: ancient.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.IntentStatusExpired, expired.Status)

	untouched, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: done.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.IntentStatusCompleted, untouched.Status)
}

func TestDeletePage_RepairsIntentMembership(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	first, err := f.store.UpsertPage(ctx, ingestReq("https://go.dev/doc", "Go Docs", 5000))
	require.NoError(t, err)
	second, err := f.store.UpsertPage(ctx, ingestReq("https://go.dev/blog", "Go Blog", 4000))
	require.NoError(t, err)

	intentId, err := f.store.CreateIntentForPage(ctx, first.Id, "Go research", 0.8)
	require.NoError(t, err)
	require.NoError(t, f.store.AssignPrimaryIntent(ctx, second.Id, intentId, 0.7, true))

	require.NoError(t, f.store.DeletePage(ctx, first.Id))

	uow := f.factory.NewUnitOfWork(ctx)
	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: first.Id})
	require.NoError(t, err)
	assert.Nil(t, page)

	intent, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: intentId})
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, 1, intent.PageCount)
	assert.Equal(t, []uuid.UUID{second.Id}, intent.PageIds)
}
