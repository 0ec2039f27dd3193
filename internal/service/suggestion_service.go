package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"ai-intent-be/internal/config"
	"ai-intent-be/internal/constant"
	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/pkg/logger"
	"ai-intent-be/internal/repository/specification"
	"ai-intent-be/internal/repository/unitofwork"
	"ai-intent-be/pkg/events"
	pkgNats "ai-intent-be/pkg/nats"
	"ai-intent-be/pkg/signals"
)

// TopicGraph is an optional collaborator that knows which subtopics a
// research area usually covers. Without one the knowledge-gap rule is
// skipped, not failed.
type TopicGraph interface {
	MissingSubtopics(ctx context.Context, keywords []string) ([]string, error)
}

type ISuggestionService interface {
	// Run evaluates all rules, creates/refreshes nudges within the daily
	// budget, and returns how many were created.
	Run(ctx context.Context) (int, error)

	Acknowledge(ctx context.Context, id uuid.UUID) error
	Snooze(ctx context.Context, id uuid.UUID, until time.Time) error
	Dismiss(ctx context.Context, id uuid.UUID) error
}

type suggestionService struct {
	uowFactory      unitofwork.RepositoryFactory
	detectorService IDetectorService
	topicGraph      TopicGraph
	eventPublisher  *pkgNats.Publisher
	cfg             config.SuggestionConfig
	log             logger.ILogger
}

func NewSuggestionService(
	uowFactory unitofwork.RepositoryFactory,
	detectorService IDetectorService,
	topicGraph TopicGraph,
	eventPublisher *pkgNats.Publisher,
	cfg config.SuggestionConfig,
	log logger.ILogger,
) ISuggestionService {
	return &suggestionService{
		uowFactory:      uowFactory,
		detectorService: detectorService,
		topicGraph:      topicGraph,
		eventPublisher:  eventPublisher,
		cfg:             cfg,
		log:             log,
	}
}

// proposal is a rule's wish before budget and dedup are applied.
type proposal struct {
	intentId   uuid.UUID
	nudgeType  string
	priority   string
	message    string
	confidence float64
	data       map[string]interface{}

	// intentUpdated is the backing intent's LastUpdated; an existing nudge is
	// only refreshed when the intent changed after the nudge was last written.
	intentUpdated time.Time
}

func priorityRank(p string) int {
	switch p {
	case entity.NudgePriorityHigh:
		return 0
	case entity.NudgePriorityMedium:
		return 1
	default:
		return 2
	}
}

func (s *suggestionService) Run(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	createdToday, err := uow.NudgeRepository().Count(ctx, specification.NudgeCreatedAfter{Cutoff: startOfDay})
	if err != nil {
		return 0, err
	}
	remaining := s.cfg.DailyCap - int(createdToday)

	var proposals []proposal
	for _, gather := range []func(context.Context) ([]proposal, error){
		s.dormantReminders,
		s.mergeSuggestions,
		s.knowledgeGaps,
		s.milestones,
	} {
		batch, err := gather(ctx)
		if err != nil {
			s.log.Warn("suggestion", "rule evaluation failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		proposals = append(proposals, batch...)
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		if r1, r2 := priorityRank(proposals[i].priority), priorityRank(proposals[j].priority); r1 != r2 {
			return r1 < r2
		}
		return proposals[i].confidence > proposals[j].confidence
	})

	created := 0
	for _, p := range proposals {
		existing, err := uow.NudgeRepository().FindOne(ctx,
			specification.NudgeByIntentAndType{IntentID: p.intentId, Type: p.nudgeType},
			specification.NudgeByStatusIn{Statuses: []string{entity.NudgeStatusPending, entity.NudgeStatusSnoozed}},
		)
		if err != nil {
			return created, err
		}

		if existing != nil {
			revived := false
			if existing.Status == entity.NudgeStatusSnoozed {
				// A live snooze keeps the key quiet; once it elapses the same
				// nudge comes back instead of a freshly minted duplicate.
				if existing.SnoozedUntil != nil && time.Now().Before(*existing.SnoozedUntil) {
					continue
				}
				existing.Status = entity.NudgeStatusPending
				existing.SnoozedUntil = nil
				revived = true
			}

			lastTouch := existing.CreatedAt
			if existing.UpdatedAt != nil {
				lastTouch = *existing.UpdatedAt
			}
			if !revived && !p.intentUpdated.After(lastTouch) {
				continue
			}

			// Refresh in place; a refreshed nudge does not consume budget.
			existing.Message = p.message
			existing.Priority = p.priority
			existing.Confidence = p.confidence
			existing.Data = p.data
			updatedAt := time.Now()
			existing.UpdatedAt = &updatedAt
			if err := uow.NudgeRepository().Update(ctx, existing); err != nil {
				return created, err
			}
			continue
		}

		if remaining <= 0 {
			continue
		}

		nudge := entity.Nudge{
			Id:         uuid.New(),
			IntentId:   p.intentId,
			Type:       p.nudgeType,
			Status:     entity.NudgeStatusPending,
			Priority:   p.priority,
			Message:    p.message,
			Confidence: p.confidence,
			Data:       p.data,
			CreatedAt:  time.Now(),
		}
		if err := uow.NudgeRepository().Create(ctx, &nudge); err != nil {
			return created, err
		}
		created++
		remaining--

		if s.eventPublisher != nil {
			evt := events.BaseEvent{
				Type: events.TypeNudgeCreated,
				Data: map[string]interface{}{
					"nudge_id":  nudge.Id,
					"intent_id": nudge.IntentId,
					"type":      nudge.Type,
					"message":   nudge.Message,
				},
				OccurredAt: time.Now(),
			}
			if err := s.eventPublisher.Publish(ctx, evt); err != nil {
				s.log.Warn("suggestion", "failed to publish nudge event", map[string]interface{}{"error": err.Error()})
			}
		}
	}
	return created, nil
}

func (s *suggestionService) dormantReminders(ctx context.Context) ([]proposal, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	dormant, err := uow.IntentRepository().FindAll(ctx,
		specification.ByStatus{Status: entity.IntentStatusDormant},
	)
	if err != nil {
		return nil, err
	}

	var out []proposal
	for _, intent := range dormant {
		inactive := time.Since(intent.LastUpdated)
		priority := entity.NudgePriorityLow
		switch {
		case inactive > 14*24*time.Hour:
			priority = entity.NudgePriorityHigh
		case inactive > 7*24*time.Hour:
			priority = entity.NudgePriorityMedium
		}
		days := int(inactive.Hours() / 24)
		out = append(out, proposal{
			intentId:      intent.Id,
			nudgeType:     entity.NudgeTypeDormantReminder,
			priority:      priority,
			message:       fmt.Sprintf("You haven't looked at %q in %d days. Pick it back up?", intent.Label, days),
			confidence:    1.0,
			data:          map[string]interface{}{"inactive_days": days},
			intentUpdated: intent.LastUpdated,
		})
	}
	return out, nil
}

func (s *suggestionService) mergeSuggestions(ctx context.Context) ([]proposal, error) {
	pairs, err := s.detectorService.Candidates(ctx)
	if err != nil {
		return nil, err
	}

	var out []proposal
	for _, pair := range pairs {
		winner, other := pair.A, pair.B
		if other.FirstSeen.Before(winner.FirstSeen) {
			winner, other = other, winner
		}
		out = append(out, proposal{
			intentId:   winner.Id,
			nudgeType:  entity.NudgeTypeMergeSuggestion,
			priority:   entity.NudgePriorityMedium,
			message:    fmt.Sprintf("%q and %q look like the same research topic. Merge them?", winner.Label, other.Label),
			confidence: pair.Overlap,
			data: map[string]interface{}{
				"other_intent_id": other.Id.String(),
				"overlap":         pair.Overlap,
				"shared_domains":  pair.SharedDomains,
			},
			intentUpdated: winner.LastUpdated,
		})
	}
	return out, nil
}

func (s *suggestionService) knowledgeGaps(ctx context.Context) ([]proposal, error) {
	if s.topicGraph == nil {
		return nil, nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	active, err := uow.IntentRepository().FindAll(ctx,
		specification.ByStatus{Status: entity.IntentStatusActive},
	)
	if err != nil {
		return nil, err
	}

	var out []proposal
	for _, intent := range active {
		top := signals.TopKeywords(intent.KeywordWeights(), 10)
		missing, err := s.topicGraph.MissingSubtopics(ctx, top)
		if err != nil || len(missing) == 0 {
			continue
		}
		out = append(out, proposal{
			intentId:      intent.Id,
			nudgeType:     entity.NudgeTypeKnowledgeGap,
			priority:      entity.NudgePriorityLow,
			message:       fmt.Sprintf("Your research on %q hasn't covered: %s", intent.Label, missing[0]),
			confidence:    0.5,
			data:          map[string]interface{}{"missing_subtopics": missing},
			intentUpdated: intent.LastUpdated,
		})
	}
	return out, nil
}

// milestones reads the latest completed milestone-check verdict per active
// intent; it never calls the model itself.
func (s *suggestionService) milestones(ctx context.Context) ([]proposal, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	active, err := uow.IntentRepository().FindAll(ctx,
		specification.ByStatus{Status: entity.IntentStatusActive},
	)
	if err != nil {
		return nil, err
	}

	var out []proposal
	for _, intent := range active {
		check, err := uow.TaskRepository().FindOne(ctx,
			specification.TaskForIntent{IntentID: intent.Id},
			specification.TaskByType{Type: constant.TaskMilestoneCheck},
			specification.TaskByStatus{Status: entity.TaskStatusCompleted},
			specification.OrderBy{Field: "completed_at", Desc: true},
		)
		if err != nil {
			return nil, err
		}
		if check == nil || check.StructuredOutput == nil {
			continue
		}

		completed, _ := check.StructuredOutput["completed"].(bool)
		milestone, _ := check.StructuredOutput["next_milestone"].(string)
		confidence, _ := check.StructuredOutput["confidence"].(float64)
		if completed || milestone == "" || confidence < s.cfg.MilestoneFloor {
			continue
		}
		out = append(out, proposal{
			intentId:      intent.Id,
			nudgeType:     entity.NudgeTypeMilestone,
			priority:      entity.NudgePriorityMedium,
			message:       fmt.Sprintf("Next step for %q: %s", intent.Label, milestone),
			confidence:    confidence,
			data:          map[string]interface{}{"next_milestone": milestone},
			intentUpdated: intent.LastUpdated,
		})
	}
	return out, nil
}

func (s *suggestionService) Acknowledge(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, entity.NudgeStatusAcknowledged, nil)
}

func (s *suggestionService) Snooze(ctx context.Context, id uuid.UUID, until time.Time) error {
	return s.setStatus(ctx, id, entity.NudgeStatusSnoozed, &until)
}

func (s *suggestionService) Dismiss(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, entity.NudgeStatusDismissed, nil)
}

func (s *suggestionService) setStatus(ctx context.Context, id uuid.UUID, status string, snoozedUntil *time.Time) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	nudge, err := uow.NudgeRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if nudge == nil {
		return fmt.Errorf("nudge %s not found", id)
	}

	nudge.Status = status
	nudge.SnoozedUntil = snoozedUntil
	now := time.Now()
	nudge.UpdatedAt = &now
	return uow.NudgeRepository().Update(ctx, nudge)
}
