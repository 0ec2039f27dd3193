package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"ai-intent-be/internal/dto"
	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/pkg/logger"
	"ai-intent-be/internal/repository/memory"
	"ai-intent-be/internal/repository/specification"
	"ai-intent-be/internal/repository/unitofwork"
	"ai-intent-be/pkg/events"
	pkgNats "ai-intent-be/pkg/nats"
	"ai-intent-be/pkg/signals"
)

type IStoreService interface {
	UpsertPage(ctx context.Context, req *dto.IngestPageRequest) (*dto.IngestPageResponse, error)
	SetPageSemantics(ctx context.Context, pageId uuid.UUID, sem *entity.SemanticFeatures, embedding []float32) error
	DeletePage(ctx context.Context, pageId uuid.UUID) error

	AssignPrimaryIntent(ctx context.Context, pageId, intentId uuid.UUID, confidence float64, autoAssigned bool) error
	CreateIntentForPage(ctx context.Context, pageId uuid.UUID, labelHint string, confidence float64) (uuid.UUID, error)
	MergeIntents(ctx context.Context, loserId, winnerId uuid.UUID) error

	UpdateIntentFields(ctx context.Context, req *dto.UpdateIntentRequest) (*dto.UpdateIntentResponse, error)
	SetIntentLabel(ctx context.Context, intentId uuid.UUID, label, goal string, confidence float64) error
	SetIntentSummary(ctx context.Context, intentId uuid.UUID, summary string) error
	SetIntentInsights(ctx context.Context, intentId uuid.UUID, insights, nextSteps []string) error
	CompleteIntent(ctx context.Context, intentId uuid.UUID) error

	RefreshIntentStatuses(ctx context.Context, dormantAfter, expireAfter time.Duration) (int, error)
}

type storeService struct {
	uowFactory       unitofwork.RepositoryFactory
	visitCache       *memory.VisitCache
	dedupWindow      time.Duration
	publisherService IPublisherService
	eventPublisher   *pkgNats.Publisher
	locks            *entityLocker
	log              logger.ILogger
}

func NewStoreService(
	uowFactory unitofwork.RepositoryFactory,
	visitCache *memory.VisitCache,
	dedupWindow time.Duration,
	publisherService IPublisherService,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IStoreService {
	return &storeService{
		uowFactory:       uowFactory,
		visitCache:       visitCache,
		dedupWindow:      dedupWindow,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		locks:            newEntityLocker(),
		log:              log,
	}
}

// publishBus puts an enrichment event on the in-process bus. Enrichment is
// auxiliary; a publish failure is logged, never propagated.
func (s *storeService) publishBus(ctx context.Context, msg dto.EnrichmentEventMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.log.Warn("store", "failed to publish enrichment event", map[string]interface{}{
			"event_type": msg.EventType,
			"error":      err.Error(),
		})
	}
}

func (s *storeService) publishNats(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn("store", "failed to publish NATS event", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
	}
}

func (s *storeService) UpsertPage(ctx context.Context, req *dto.IngestPageRequest) (*dto.IngestPageResponse, error) {
	interaction := entity.Interaction{
		DwellTimeMs:     req.Interaction.DwellTimeMs,
		ScrollDepth:     req.Interaction.ScrollDepth,
		ScrollPosition:  req.Interaction.ScrollPosition,
		ScrollDistance:  req.Interaction.ScrollDistance,
		TextSelections:  req.Interaction.TextSelections,
		FocusedSections: req.Interaction.FocusedSections,
	}
	if req.Interaction.EngagementScore != nil {
		interaction.EngagementScore = *req.Interaction.EngagementScore
	} else {
		interaction.EngagementScore = signals.EngagementScore(
			interaction.DwellTimeMs, interaction.ScrollDepth, len(interaction.TextSelections))
	}

	// Same-id report: merge fields into the existing record.
	if req.Id != nil {
		return s.mergeById(ctx, *req.Id, req, interaction)
	}

	// Same-URL report inside the recency window: a second flush of the same
	// visit, folded into one record.
	if pageId, ok := s.visitCache.Lookup(req.Url); ok {
		res, err := s.mergeVisit(ctx, pageId, req, interaction)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
		// The cached page can be gone (e.g. wiped store); fall through and
		// treat the report as a fresh visit.
		s.visitCache.Forget(req.Url)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// The cache is process-local; after a restart the window is re-checked
	// against the store itself.
	recent, err := uow.PageRepository().FindOne(ctx,
		specification.ByURL{URL: req.Url},
		specification.VisitedAfter{Cutoff: time.Now().Add(-s.dedupWindow)},
	)
	if err != nil {
		return nil, err
	}
	if recent != nil {
		return s.mergeVisit(ctx, recent.Id, req, interaction)
	}

	now := time.Now()
	visitedAt := now
	if req.VisitedAt != nil {
		visitedAt = *req.VisitedAt
	}
	page := entity.Page{
		Id:          uuid.New(),
		Url:         req.Url,
		Title:       req.Title,
		Interaction: interaction,
		VisitedAt:   visitedAt,
		CreatedAt:   now,
	}
	if err := uow.PageRepository().Create(ctx, &page); err != nil {
		return nil, err
	}
	s.visitCache.Remember(page.Url, page.Id)

	s.publishBus(ctx, dto.EnrichmentEventMessage{
		EventType: events.TypePageAdded,
		PageId:    &page.Id,
	})

	return &dto.IngestPageResponse{Id: page.Id, Outcome: "created"}, nil
}

// foldInteraction merges a later interaction report into the stored one:
// time-like counters add up, progress metrics keep their maximum, text
// captures concatenate. Nothing regresses.
func foldInteraction(dst *entity.Interaction, in entity.Interaction) {
	dst.DwellTimeMs += in.DwellTimeMs
	dst.ScrollDistance += in.ScrollDistance
	if in.ScrollDepth > dst.ScrollDepth {
		dst.ScrollDepth = in.ScrollDepth
	}
	dst.ScrollPosition = in.ScrollPosition
	if in.EngagementScore > dst.EngagementScore {
		dst.EngagementScore = in.EngagementScore
	}
	dst.TextSelections = append(dst.TextSelections, in.TextSelections...)
	dst.FocusedSections = append(dst.FocusedSections, in.FocusedSections...)
}

// mergeById applies a same-id report: incoming metadata wins, interaction
// counters fold field-by-field, enrichment and intent assignments are never
// discarded.
func (s *storeService) mergeById(ctx context.Context, id uuid.UUID, req *dto.IngestPageRequest, interaction entity.Interaction) (*dto.IngestPageResponse, error) {
	unlock := s.locks.lock("page:" + id.String())
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, fmt.Errorf("page %s not found", id)
	}

	page.Url = req.Url
	if req.Title != "" {
		page.Title = req.Title
	}
	foldInteraction(&page.Interaction, interaction)
	now := time.Now()
	page.UpdatedAt = &now

	if err := uow.PageRepository().Update(ctx, page); err != nil {
		return nil, err
	}
	if page.Primary != nil {
		if err := s.recomputeIntentAggregates(ctx, uow, page.Primary.IntentId); err != nil {
			return nil, err
		}
	}

	s.publishBus(ctx, dto.EnrichmentEventMessage{
		EventType: events.TypePageUpdated,
		PageId:    &page.Id,
	})

	return &dto.IngestPageResponse{Id: page.Id, Outcome: "updated"}, nil
}

// mergeVisit folds a second report of the same visit into the stored page:
// time-like metrics add up, progress metrics keep their maximum, text
// captures concatenate.
func (s *storeService) mergeVisit(ctx context.Context, pageId uuid.UUID, req *dto.IngestPageRequest, interaction entity.Interaction) (*dto.IngestPageResponse, error) {
	unlock := s.locks.lock("page:" + pageId.String())
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: pageId})
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	foldInteraction(&page.Interaction, interaction)
	if req.Title != "" {
		page.Title = req.Title
	}
	now := time.Now()
	page.UpdatedAt = &now

	if err := uow.PageRepository().Update(ctx, page); err != nil {
		return nil, err
	}
	if page.Primary != nil {
		if err := s.recomputeIntentAggregates(ctx, uow, page.Primary.IntentId); err != nil {
			return nil, err
		}
	}

	s.publishBus(ctx, dto.EnrichmentEventMessage{
		EventType: events.TypePageUpdated,
		PageId:    &page.Id,
	})

	return &dto.IngestPageResponse{Id: page.Id, Outcome: "merged"}, nil
}

func (s *storeService) SetPageSemantics(ctx context.Context, pageId uuid.UUID, sem *entity.SemanticFeatures, embedding []float32) error {
	unlock := s.locks.lock("page:" + pageId.String())
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: pageId})
	if err != nil {
		return err
	}
	if page == nil {
		return entityGone("page", pageId)
	}

	page.Semantics = sem
	if len(embedding) > 0 {
		page.Embedding = embedding
	}
	now := time.Now()
	page.UpdatedAt = &now

	if err := uow.PageRepository().Update(ctx, page); err != nil {
		return err
	}
	if page.Primary != nil {
		return s.recomputeIntentAggregates(ctx, uow, page.Primary.IntentId)
	}
	return nil
}

// DeletePage removes a page on explicit user request and repairs the owning
// intent's membership. Automatic flows never delete pages.
func (s *storeService) DeletePage(ctx context.Context, pageId uuid.UUID) error {
	unlock := s.locks.lock("page:" + pageId.String())
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: pageId})
	if err != nil {
		return err
	}
	if page == nil {
		return entityGone("page", pageId)
	}

	var owner *uuid.UUID
	if page.Primary != nil {
		id := page.Primary.IntentId
		owner = &id
	}
	if owner != nil {
		if err := s.removePageFromIntent(ctx, uow, *owner, pageId); err != nil {
			return err
		}
	}
	if err := uow.PageRepository().Delete(ctx, pageId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.visitCache.Forget(page.Url)
	if owner != nil {
		s.publishBus(ctx, dto.EnrichmentEventMessage{
			EventType: events.TypeIntentPagesChanged,
			IntentId:  owner,
		})
	}
	return nil
}

// resolveMergeTarget follows the merge chain so that assignments against a
// merged intent land on its surviving winner.
func resolveMergeTarget(ctx context.Context, uow unitofwork.UnitOfWork, intentId uuid.UUID) (*entity.Intent, error) {
	for i := 0; i < 16; i++ { // chain length bound, cycles are a bug
		intent, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: intentId})
		if err != nil {
			return nil, err
		}
		if intent == nil {
			return nil, entityGone("intent", intentId)
		}
		if intent.Status != entity.IntentStatusMerged || intent.MergedInto == nil {
			return intent, nil
		}
		intentId = *intent.MergedInto
	}
	return nil, fmt.Errorf("merge chain too deep for intent %s", intentId)
}

func (s *storeService) AssignPrimaryIntent(ctx context.Context, pageId, intentId uuid.UUID, confidence float64, autoAssigned bool) error {
	unlock := s.locks.lock("page:" + pageId.String())
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: pageId})
	if err != nil {
		return err
	}
	if page == nil {
		return entityGone("page", pageId)
	}

	target, err := resolveMergeTarget(ctx, uow, intentId)
	if err != nil {
		return err
	}
	if entity.IsTerminalIntentStatus(target.Status) {
		return fmt.Errorf("cannot assign page to %s intent %s", target.Status, target.Id)
	}

	if page.Primary != nil && page.Primary.IntentId == target.Id {
		page.Primary.Confidence = confidence
		now := time.Now()
		page.UpdatedAt = &now
		if err := uow.PageRepository().Update(ctx, page); err != nil {
			return err
		}
		return uow.Commit()
	}

	var previous *uuid.UUID
	if page.Primary != nil {
		prev := page.Primary.IntentId
		previous = &prev
	}

	page.Primary = &entity.IntentAssignment{
		IntentId:     target.Id,
		Confidence:   confidence,
		AssignedAt:   time.Now(),
		AutoAssigned: autoAssigned,
	}
	now := time.Now()
	page.UpdatedAt = &now
	if err := uow.PageRepository().Update(ctx, page); err != nil {
		return err
	}

	// Remove from the previous owner first so the page-count invariant holds
	// on both sides once the transaction commits.
	if previous != nil {
		if err := s.removePageFromIntent(ctx, uow, *previous, pageId); err != nil {
			return err
		}
	}
	if err := s.addPageToIntent(ctx, uow, target, pageId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if previous != nil {
		s.publishBus(ctx, dto.EnrichmentEventMessage{
			EventType: events.TypeIntentPagesChanged,
			IntentId:  previous,
		})
	}
	targetId := target.Id
	s.publishBus(ctx, dto.EnrichmentEventMessage{
		EventType: events.TypeIntentPagesChanged,
		IntentId:  &targetId,
	})
	return nil
}

func (s *storeService) addPageToIntent(ctx context.Context, uow unitofwork.UnitOfWork, intent *entity.Intent, pageId uuid.UUID) error {
	for _, id := range intent.PageIds {
		if id == pageId {
			return nil
		}
	}
	intent.PageIds = append(intent.PageIds, pageId)
	intent.PageCount = len(intent.PageIds)
	if intent.Status == entity.IntentStatusEmerging && intent.PageCount >= entity.EmergingPageThreshold {
		intent.Status = entity.IntentStatusActive
	}
	// Activity on a dormant intent revives it.
	if intent.Status == entity.IntentStatusDormant {
		intent.Status = entity.IntentStatusActive
	}
	intent.LastUpdated = time.Now()

	if err := s.refreshAggregates(ctx, uow, intent); err != nil {
		return err
	}
	return uow.IntentRepository().Update(ctx, intent)
}

func (s *storeService) removePageFromIntent(ctx context.Context, uow unitofwork.UnitOfWork, intentId, pageId uuid.UUID) error {
	intent, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: intentId})
	if err != nil {
		return err
	}
	if intent == nil {
		return nil
	}

	kept := intent.PageIds[:0]
	for _, id := range intent.PageIds {
		if id != pageId {
			kept = append(kept, id)
		}
	}
	intent.PageIds = kept
	intent.PageCount = len(intent.PageIds)
	intent.LastUpdated = time.Now()

	if err := s.refreshAggregates(ctx, uow, intent); err != nil {
		return err
	}
	return uow.IntentRepository().Update(ctx, intent)
}

func (s *storeService) CreateIntentForPage(ctx context.Context, pageId uuid.UUID, labelHint string, confidence float64) (uuid.UUID, error) {
	unlock := s.locks.lock("page:" + pageId.String())
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return uuid.Nil, err
	}
	defer uow.Rollback()

	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: pageId})
	if err != nil {
		return uuid.Nil, err
	}
	if page == nil {
		return uuid.Nil, entityGone("page", pageId)
	}

	now := time.Now()
	label := labelHint
	if label == "" {
		label = "New research topic"
	}
	intent := entity.Intent{
		Id:              uuid.New(),
		Label:           label,
		LabelConfidence: confidence,
		LabelHistory: []entity.LabelRevision{
			{Label: label, Confidence: confidence, ChangedAt: now},
		},
		Status:      entity.IntentStatusEmerging,
		FirstSeen:   now,
		LastUpdated: now,
		CreatedAt:   now,
	}
	if err := uow.IntentRepository().Create(ctx, &intent); err != nil {
		return uuid.Nil, err
	}

	page.Primary = &entity.IntentAssignment{
		IntentId:     intent.Id,
		Confidence:   confidence,
		AssignedAt:   now,
		AutoAssigned: true,
	}
	page.UpdatedAt = &now
	if err := uow.PageRepository().Update(ctx, page); err != nil {
		return uuid.Nil, err
	}
	if err := s.addPageToIntent(ctx, uow, &intent, pageId); err != nil {
		return uuid.Nil, err
	}
	if err := uow.Commit(); err != nil {
		return uuid.Nil, err
	}

	intentId := intent.Id
	s.publishBus(ctx, dto.EnrichmentEventMessage{
		EventType: events.TypeIntentCreated,
		IntentId:  &intentId,
		FirstTime: true,
	})
	return intent.Id, nil
}

func (s *storeService) MergeIntents(ctx context.Context, loserId, winnerId uuid.UUID) error {
	if loserId == winnerId {
		return nil
	}

	// Lock both intents in a stable order so concurrent opposite-direction
	// merges cannot deadlock.
	first, second := loserId.String(), winnerId.String()
	if first > second {
		first, second = second, first
	}
	unlockFirst := s.locks.lock("intent:" + first)
	defer unlockFirst()
	unlockSecond := s.locks.lock("intent:" + second)
	defer unlockSecond()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	loser, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: loserId})
	if err != nil {
		return err
	}
	if loser == nil {
		return entityGone("intent", loserId)
	}
	// Re-running a merge is a no-op, not an error.
	if loser.Status == entity.IntentStatusMerged {
		return nil
	}

	winner, err := resolveMergeTarget(ctx, uow, winnerId)
	if err != nil {
		return err
	}
	if winner.Id == loser.Id {
		return nil
	}
	if entity.IsTerminalIntentStatus(winner.Status) {
		return fmt.Errorf("cannot merge into %s intent %s", winner.Status, winner.Id)
	}

	pages, err := uow.PageRepository().FindAll(ctx, specification.ByPrimaryIntent{IntentID: loser.Id})
	if err != nil {
		return err
	}
	now := time.Now()
	for _, page := range pages {
		page.Primary = &entity.IntentAssignment{
			IntentId:     winner.Id,
			Confidence:   page.Primary.Confidence,
			AssignedAt:   now,
			AutoAssigned: true,
		}
		page.UpdatedAt = &now
		if err := uow.PageRepository().Update(ctx, page); err != nil {
			return err
		}
		exists := false
		for _, id := range winner.PageIds {
			if id == page.Id {
				exists = true
				break
			}
		}
		if !exists {
			winner.PageIds = append(winner.PageIds, page.Id)
		}
	}
	winner.PageCount = len(winner.PageIds)
	winner.MergedFrom = append(winner.MergedFrom, loser.Id)
	if winner.Status == entity.IntentStatusEmerging && winner.PageCount >= entity.EmergingPageThreshold {
		winner.Status = entity.IntentStatusActive
	}
	winner.LastUpdated = now

	// The loser keeps its page list for audit; ownership moved to the winner.
	loser.Status = entity.IntentStatusMerged
	winnerRef := winner.Id
	loser.MergedInto = &winnerRef
	loser.MergedAt = &now
	loser.LastUpdated = now

	if err := s.refreshAggregates(ctx, uow, winner); err != nil {
		return err
	}
	if err := uow.IntentRepository().Update(ctx, winner); err != nil {
		return err
	}
	if err := uow.IntentRepository().Update(ctx, loser); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.log.Info("store", "intents merged", map[string]interface{}{
		"loser_id":  loser.Id,
		"winner_id": winner.Id,
		"moved":     len(pages),
	})

	s.publishBus(ctx, dto.EnrichmentEventMessage{
		EventType: events.TypeIntentPagesChanged,
		IntentId:  &winnerRef,
	})
	s.publishNats(ctx, events.TypeIntentsMerged, map[string]interface{}{
		"winner_id": winner.Id,
		"loser_id":  loser.Id,
	})
	return nil
}

func (s *storeService) UpdateIntentFields(ctx context.Context, req *dto.UpdateIntentRequest) (*dto.UpdateIntentResponse, error) {
	unlock := s.locks.lock("intent:" + req.Id.String())
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	intent, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, fmt.Errorf("intent %s not found", req.Id)
	}
	if entity.IsTerminalIntentStatus(intent.Status) {
		return nil, fmt.Errorf("intent %s is %s and can no longer change", intent.Id, intent.Status)
	}

	now := time.Now()
	if req.Label != nil && *req.Label != intent.Label {
		intent.Label = *req.Label
		intent.LabelConfidence = 1.0 // user-set labels are authoritative
		intent.LabelHistory = append(intent.LabelHistory, entity.LabelRevision{
			Label: *req.Label, Confidence: 1.0, ChangedAt: now,
		})
	}
	if req.Goal != nil {
		intent.Goal = *req.Goal
	}
	if req.Status != nil {
		switch *req.Status {
		case entity.IntentStatusCompleted, entity.IntentStatusDiscarded:
			intent.Status = *req.Status
		default:
			return nil, fmt.Errorf("status %q cannot be set directly", *req.Status)
		}
	}
	intent.UpdatedAt = &now

	if err := uow.IntentRepository().Update(ctx, intent); err != nil {
		return nil, err
	}
	return &dto.UpdateIntentResponse{Id: intent.Id}, nil
}

func (s *storeService) SetIntentLabel(ctx context.Context, intentId uuid.UUID, label, goal string, confidence float64) error {
	return s.mutateIntent(ctx, intentId, func(intent *entity.Intent) {
		if label != "" && label != intent.Label {
			intent.Label = label
			intent.LabelConfidence = confidence
			intent.LabelHistory = append(intent.LabelHistory, entity.LabelRevision{
				Label: label, Confidence: confidence, ChangedAt: time.Now(),
			})
		}
		if goal != "" {
			intent.Goal = goal
		}
	})
}

func (s *storeService) SetIntentSummary(ctx context.Context, intentId uuid.UUID, summary string) error {
	return s.mutateIntent(ctx, intentId, func(intent *entity.Intent) {
		intent.Summary = summary
	})
}

func (s *storeService) SetIntentInsights(ctx context.Context, intentId uuid.UUID, insights, nextSteps []string) error {
	return s.mutateIntent(ctx, intentId, func(intent *entity.Intent) {
		intent.Insights = insights
		intent.NextSteps = nextSteps
	})
}

func (s *storeService) CompleteIntent(ctx context.Context, intentId uuid.UUID) error {
	return s.mutateIntent(ctx, intentId, func(intent *entity.Intent) {
		intent.Status = entity.IntentStatusCompleted
	})
}

func (s *storeService) mutateIntent(ctx context.Context, intentId uuid.UUID, mutate func(*entity.Intent)) error {
	unlock := s.locks.lock("intent:" + intentId.String())
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	intent, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: intentId})
	if err != nil {
		return err
	}
	if intent == nil {
		return entityGone("intent", intentId)
	}
	if entity.IsTerminalIntentStatus(intent.Status) {
		// Late enrichment of a finished intent is dropped, not an error.
		return nil
	}

	mutate(intent)
	now := time.Now()
	intent.UpdatedAt = &now
	return uow.IntentRepository().Update(ctx, intent)
}

// RefreshIntentStatuses applies the time-driven transitions: quiet active
// intents go dormant, long-abandoned non-terminal intents expire.
func (s *storeService) RefreshIntentStatuses(ctx context.Context, dormantAfter, expireAfter time.Duration) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	intents, err := uow.IntentRepository().FindAll(ctx, specification.ByStatusIn{
		Statuses: []string{entity.IntentStatusEmerging, entity.IntentStatusActive, entity.IntentStatusDormant},
	})
	if err != nil {
		return 0, err
	}

	now := time.Now()
	changed := 0
	for _, intent := range intents {
		next := intent.Status
		switch {
		case now.Sub(intent.LastUpdated) > expireAfter:
			next = entity.IntentStatusExpired
		case intent.Status == entity.IntentStatusActive && now.Sub(intent.LastUpdated) > dormantAfter:
			next = entity.IntentStatusDormant
		}
		if next == intent.Status {
			continue
		}
		intent.Status = next
		intent.UpdatedAt = &now
		if err := uow.IntentRepository().Update(ctx, intent); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// refreshAggregates recomputes the rolling signal aggregate from the
// intent's current page set.
func (s *storeService) refreshAggregates(ctx context.Context, uow unitofwork.UnitOfWork, intent *entity.Intent) error {
	if len(intent.PageIds) == 0 {
		intent.Signals = entity.AggregatedSignals{Keywords: map[string]entity.KeywordStat{}}
		return nil
	}
	pages, err := uow.PageRepository().FindAll(ctx, specification.ByIDs{IDs: intent.PageIds})
	if err != nil {
		return err
	}
	intent.Signals = aggregateSignals(pages)
	return nil
}

func (s *storeService) recomputeIntentAggregates(ctx context.Context, uow unitofwork.UnitOfWork, intentId uuid.UUID) error {
	intent, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: intentId})
	if err != nil || intent == nil {
		return err
	}
	if err := s.refreshAggregates(ctx, uow, intent); err != nil {
		return err
	}
	intent.LastUpdated = time.Now()
	return uow.IntentRepository().Update(ctx, intent)
}

func aggregateSignals(pages []*entity.Page) entity.AggregatedSignals {
	keywords := make(map[string]entity.KeywordStat)
	domainSet := make(map[string]struct{})
	entitySet := make(map[string]struct{})
	var engagementSum float64

	for _, page := range pages {
		engagementSum += page.Interaction.EngagementScore

		if d := signals.Domain(page.Url); d != "" {
			domainSet[d] = struct{}{}
		}

		var words []string
		if page.Semantics != nil {
			words = append(words, page.Semantics.Concepts...)
			for _, e := range page.Semantics.Entities {
				entitySet[e] = struct{}{}
			}
		}
		words = append(words, signals.ExtractKeywords(page.Title)...)

		seen := make(map[string]struct{}, len(words))
		for _, w := range words {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			stat := keywords[w]
			stat.AvgEngagement = (stat.AvgEngagement*float64(stat.Count) + page.Interaction.EngagementScore) / float64(stat.Count+1)
			stat.Count++
			if page.VisitedAt.After(stat.LastSeen) {
				stat.LastSeen = page.VisitedAt
			}
			keywords[w] = stat
		}
	}

	domains := make([]string, 0, len(domainSet))
	for d := range domainSet {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	ents := make([]string, 0, len(entitySet))
	for e := range entitySet {
		ents = append(ents, e)
	}
	sort.Strings(ents)

	style := "researching"
	if len(pages) > 0 {
		switch avg := engagementSum / float64(len(pages)); {
		case avg < 0.3:
			style = "skimming"
		case avg < 0.6:
			style = "reading"
		}
	}

	return entity.AggregatedSignals{
		Keywords:      keywords,
		Domains:       domains,
		Entities:      ents,
		BrowsingStyle: style,
	}
}
