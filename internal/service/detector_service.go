package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"ai-intent-be/internal/config"
	"ai-intent-be/internal/constant"
	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/pkg/logger"
	"ai-intent-be/internal/repository/specification"
	"ai-intent-be/internal/repository/unitofwork"
	"ai-intent-be/pkg/llm"
	"ai-intent-be/pkg/llmjson"
	"ai-intent-be/pkg/signals"
)

// CandidatePair is a locally-scored merge candidate; no model call has been
// made yet.
type CandidatePair struct {
	A             *entity.Intent
	B             *entity.Intent
	Overlap       float64
	SharedDomains int
}

// MergeOutcome records the model's verdict on one candidate pair and whether
// the merge was executed.
type MergeOutcome struct {
	LoserId    uuid.UUID
	WinnerId   uuid.UUID
	Confidence float64
	Reasoning  string
	Merged     bool
}

type IDetectorService interface {
	// Candidates scores the most recently active intents pairwise and
	// returns the pairs that clear the local floors, best first.
	Candidates(ctx context.Context) ([]CandidatePair, error)

	// Scan confirms candidates with the model and executes merges above the
	// confidence threshold.
	Scan(ctx context.Context) ([]MergeOutcome, error)
}

type detectorService struct {
	uowFactory   unitofwork.RepositoryFactory
	storeService IStoreService
	llmProvider  llm.LLMProvider
	cfg          config.DetectorConfig
	log          logger.ILogger
}

func NewDetectorService(
	uowFactory unitofwork.RepositoryFactory,
	storeService IStoreService,
	llmProvider llm.LLMProvider,
	cfg config.DetectorConfig,
	log logger.ILogger,
) IDetectorService {
	return &detectorService{
		uowFactory:   uowFactory,
		storeService: storeService,
		llmProvider:  llmProvider,
		cfg:          cfg,
		log:          log,
	}
}

func (d *detectorService) Candidates(ctx context.Context) ([]CandidatePair, error) {
	uow := d.uowFactory.NewUnitOfWork(ctx)
	intents, err := uow.IntentRepository().FindAll(ctx,
		specification.ByStatusIn{Statuses: []string{entity.IntentStatusActive, entity.IntentStatusEmerging}},
		specification.OrderBy{Field: "last_updated", Desc: true},
		specification.Pagination{Limit: d.cfg.MaxIntents},
	)
	if err != nil {
		return nil, err
	}

	var pairs []CandidatePair
	for i := 0; i < len(intents); i++ {
		for j := i + 1; j < len(intents); j++ {
			a, b := intents[i], intents[j]
			if contradictory(a, b) {
				continue
			}

			topA := signals.TopKeywords(a.KeywordWeights(), d.cfg.TopKeywords)
			topB := signals.TopKeywords(b.KeywordWeights(), d.cfg.TopKeywords)
			overlap := signals.OverlapRatio(topA, topB)
			shared := signals.SharedDomains(a.Signals.Domains, b.Signals.Domains)

			// Local floors: below them the pair is rejected without ever
			// reaching the model.
			if overlap < d.cfg.OverlapFloor {
				continue
			}
			if shared == 0 && overlap < d.cfg.OverlapStrong {
				continue
			}

			pairs = append(pairs, CandidatePair{A: a, B: b, Overlap: overlap, SharedDomains: shared})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Overlap != pairs[j].Overlap {
			return pairs[i].Overlap > pairs[j].Overlap
		}
		return pairs[i].SharedDomains > pairs[j].SharedDomains
	})
	return pairs, nil
}

type mergeVerdict struct {
	Merge      bool    `json:"merge"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func (d *detectorService) Scan(ctx context.Context) ([]MergeOutcome, error) {
	pairs, err := d.Candidates(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(map[uuid.UUID]bool)
	var outcomes []MergeOutcome
	for _, pair := range pairs {
		// A pair member consumed by an earlier merge this scan is stale.
		if merged[pair.A.Id] || merged[pair.B.Id] {
			continue
		}

		verdict, err := d.confirm(ctx, pair)
		if err != nil {
			d.log.Warn("detector", "merge confirmation failed", map[string]interface{}{
				"intent_a": pair.A.Id,
				"intent_b": pair.B.Id,
				"error":    err.Error(),
			})
			continue
		}

		// The earlier intent survives.
		winner, loser := pair.A, pair.B
		if loser.FirstSeen.Before(winner.FirstSeen) {
			winner, loser = loser, winner
		}

		outcome := MergeOutcome{
			LoserId:    loser.Id,
			WinnerId:   winner.Id,
			Confidence: verdict.Confidence,
			Reasoning:  verdict.Reasoning,
		}
		if verdict.Merge && verdict.Confidence >= d.cfg.MergeConfidence {
			if err := d.storeService.MergeIntents(ctx, loser.Id, winner.Id); err != nil {
				d.log.Error("detector", "merge execution failed", map[string]interface{}{
					"loser_id":  loser.Id,
					"winner_id": winner.Id,
					"error":     err.Error(),
				})
				continue
			}
			outcome.Merged = true
			merged[loser.Id] = true
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (d *detectorService) confirm(ctx context.Context, pair CandidatePair) (*mergeVerdict, error) {
	topA := signals.TopKeywords(pair.A.KeywordWeights(), d.cfg.TopKeywords)
	topB := signals.TopKeywords(pair.B.KeywordWeights(), d.cfg.TopKeywords)

	prompt := fmt.Sprintf(constant.MergeDecisionPrompt,
		pair.A.Label, strings.Join(topA, ", "), strings.Join(pair.A.Signals.Domains, ", "),
		pair.B.Label, strings.Join(topB, ", "), strings.Join(pair.B.Signals.Domains, ", "),
		pair.Overlap*100, pair.SharedDomains,
	)
	raw, err := d.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, err
	}

	var verdict mergeVerdict
	outcome, err := llmjson.Parse(raw, &verdict)
	if outcome == llmjson.OutcomeErr {
		return nil, err
	}
	return &verdict, nil
}

// contradictory reports whether the two intents sit in different members of
// the same mutually-exclusive topic group.
func contradictory(a, b *entity.Intent) bool {
	for _, group := range constant.ContradictionGroups {
		topicA := matchedTopic(a, group)
		topicB := matchedTopic(b, group)
		if topicA != "" && topicB != "" && topicA != topicB {
			return true
		}
	}
	return false
}

func matchedTopic(intent *entity.Intent, group []string) string {
	for _, topic := range group {
		if _, ok := intent.Signals.Keywords[topic]; ok {
			return topic
		}
	}
	return ""
}
