package service

import (
	"context"
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

func testDetectorConfig() config.DetectorConfig {
	return config.DetectorConfig{
		MaxIntents:      10,
		TopKeywords:     20,
		OverlapFloor:    0.05,
		OverlapStrong:   0.30,
		MergeConfidence: 0.85,
	}
}

type detectorFixture struct {
	factory  *memory.Factory
	store    IStoreService
	llm      *stubLLM
	detector IDetectorService
}

func newDetectorFixture(t *testing.T, llmResponse string) *detectorFixture {
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
	stub := &stubLLM{response: llmResponse}
	return &detectorFixture{
		factory:  factory,
		store:    store,
		llm:      stub,
		detector: NewDetectorService(factory, store, stub, testDetectorConfig(), nopLogger{}),
	}
}

func seedIntent(t *testing.T, f *detectorFixture, label string, firstSeen time.Time, keywords []string, domains []string) uuid.UUID {
	t.Helper()
	stats := make(map[string]entity.KeywordStat, len(keywords))
	for _, kw := range keywords {
		stats[kw] = entity.KeywordStat{Count: 3, AvgEngagement: 0.6, LastSeen: time.Now()}
	}
	intent := &entity.Intent{
		Id:          uuid.New(),
		Label:       label,
		Status:      entity.IntentStatusActive,
		Signals:     entity.AggregatedSignals{Keywords: stats, Domains: domains},
		FirstSeen:   firstSeen,
		LastUpdated: time.Now(),
		CreatedAt:   time.Now(),
	}
	ctx := context.Background()
	require.NoError(t, f.factory.NewUnitOfWork(ctx).IntentRepository().Create(ctx, intent))
	return intent.Id
}

func TestCandidates_BelowOverlapFloorIsRejectedLocally(t *testing.T) {
	f := newDetectorFixture(t, `{"merge": true, "confidence": 0.99}`)
	now := time.Now()

	kws := make([]string, 20)
	for i := range kws {
		kws[i] = "topicA" + string(rune('a'+i))
	}
	seedIntent(t, f, "one", now.Add(-time.Hour), kws, []string{"a.dev"})
	seedIntent(t, f, "two", now, []string{"unrelated", "words", "entirely"}, []string{"a.dev"})

	pairs, err := f.detector.Candidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pairs)
	assert.Equal(t, 0, f.llm.calls, "sub-floor pairs must not reach the model")
}

func TestCandidates_OverlapWithoutSharedDomainNeedsStrongOverlap(t *testing.T) {
	f := newDetectorFixture(t, `{"merge": false, "confidence": 0.1}`)
	now := time.Now()

	// 2 of 10 shared keywords: 20% overlap, above the floor but below the
	// strong threshold, and no shared domain.
	shared := []string{"golang", "testing"}
	a := append([]string{"one1", "one2", "one3", "one4", "one5", "one6", "one7", "one8"}, shared...)
	b := append([]string{"two1", "two2", "two3", "two4", "two5", "two6", "two7", "two8"}, shared...)
	seedIntent(t, f, "one", now.Add(-time.Hour), a, []string{"a.dev"})
	seedIntent(t, f, "two", now, b, []string{"b.dev"})

	pairs, err := f.detector.Candidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestCandidates_SharedDomainLowersTheBar(t *testing.T) {
	f := newDetectorFixture(t, `{"merge": false, "confidence": 0.1}`)
	now := time.Now()

	shared := []string{"golang", "testing"}
	a := append([]string{"one1", "one2", "one3", "one4", "one5", "one6", "one7", "one8"}, shared...)
	b := append([]string{"two1", "two2", "two3", "two4", "two5", "two6", "two7", "two8"}, shared...)
	seedIntent(t, f, "one", now.Add(-time.Hour), a, []string{"go.dev"})
	seedIntent(t, f, "two", now, b, []string{"go.dev"})

	pairs, err := f.detector.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.InDelta(t, 0.2, pairs[0].Overlap, 0.001)
	assert.Equal(t, 1, pairs[0].SharedDomains)
}

func TestCandidates_ContradictoryTopicsAreExcluded(t *testing.T) {
	f := newDetectorFixture(t, `{"merge": true, "confidence": 0.99}`)
	now := time.Now()

	// Heavy overlap, but one intent is about react and the other about vue.
	shared := []string{"frontend", "components", "state", "routing", "hooks"}
	seedIntent(t, f, "react app", now.Add(-time.Hour), append([]string{"react"}, shared...), []string{"dev.to"})
	seedIntent(t, f, "vue app", now, append([]string{"vue"}, shared...), []string{"dev.to"})

	pairs, err := f.detector.Candidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestScan_HighConfidenceVerdictExecutesMerge(t *testing.T) {
	f := newDetectorFixture(t, `{"merge": true, "confidence": 0.92, "reasoning": "same topic"}`)
	now := time.Now()

	shared := []string{"golang", "concurrency", "channels", "goroutines"}
	olderId := seedIntent(t, f, "older", now.Add(-2*time.Hour), shared, []string{"go.dev"})
	newerId := seedIntent(t, f, "newer", now, shared, []string{"go.dev"})

	outcomes, err := f.detector.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Merged)
	assert.Equal(t, olderId, outcomes[0].WinnerId, "the earlier intent survives")
	assert.Equal(t, newerId, outcomes[0].LoserId)

	ctx := context.Background()
	loser, err := f.factory.NewUnitOfWork(ctx).IntentRepository().FindOne(ctx, specification.ByID{ID: newerId})
	require.NoError(t, err)
	assert.Equal(t, entity.IntentStatusMerged, loser.Status)
	require.NotNil(t, loser.MergedInto)
	assert.Equal(t, olderId, *loser.MergedInto)
}

func TestScan_LowConfidenceVerdictDoesNotMerge(t *testing.T) {
	f := newDetectorFixture(t, `{"merge": true, "confidence": 0.6, "reasoning": "maybe"}`)
	now := time.Now()

	shared := []string{"golang", "concurrency", "channels", "goroutines"}
	seedIntent(t, f, "older", now.Add(-2*time.Hour), shared, []string{"go.dev"})
	newerId := seedIntent(t, f, "newer", now, shared, []string{"go.dev"})

	outcomes, err := f.detector.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Merged)

	ctx := context.Background()
	intent, err := f.factory.NewUnitOfWork(ctx).IntentRepository().FindOne(ctx, specification.ByID{ID: newerId})
	require.NoError(t, err)
	assert.Equal(t, entity.IntentStatusActive, intent.Status)
}

func TestScan_FencedVerdictStillParses(t *testing.T) {
	f := newDetectorFixture(t, "```json\n{\"merge\": true, \"confidence\": 0.9, \"reasoning\": \"same\",}\n```")
	now := time.Now()

	shared := []string{"golang", "concurrency", "channels", "goroutines"}
	seedIntent(t, f, "older", now.Add(-2*time.Hour), shared, []string{"go.dev"})
	seedIntent(t, f, "newer", now, shared, []string{"go.dev"})

	outcomes, err := f.detector.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Merged)
}
