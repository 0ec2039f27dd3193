package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-intent-be/internal/config"
	"ai-intent-be/internal/constant"
	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/pkg/logger"
	"ai-intent-be/internal/repository/specification"
	"ai-intent-be/internal/repository/unitofwork"
	"ai-intent-be/pkg/embedding"
	"ai-intent-be/pkg/llm"
	"ai-intent-be/pkg/llmjson"
	"ai-intent-be/pkg/signals"
	"ai-intent-be/pkg/utils"
)

// EnrichmentJobs holds the task handlers the scheduler dispatches to. Each
// handler loads its target fresh, calls the model, and writes results back
// through the store service so invariants hold.
type EnrichmentJobs struct {
	uowFactory        unitofwork.RepositoryFactory
	storeService      IStoreService
	detectorService   IDetectorService
	suggestionService ISuggestionService
	llmProvider       llm.LLMProvider
	embeddingProvider embedding.EmbeddingProvider
	detectorCfg       config.DetectorConfig
	milestoneFloor    float64
	log               logger.ILogger
}

func NewEnrichmentJobs(
	uowFactory unitofwork.RepositoryFactory,
	storeService IStoreService,
	detectorService IDetectorService,
	suggestionService ISuggestionService,
	llmProvider llm.LLMProvider,
	embeddingProvider embedding.EmbeddingProvider,
	detectorCfg config.DetectorConfig,
	milestoneFloor float64,
	log logger.ILogger,
) *EnrichmentJobs {
	return &EnrichmentJobs{
		uowFactory:        uowFactory,
		storeService:      storeService,
		detectorService:   detectorService,
		suggestionService: suggestionService,
		llmProvider:       llmProvider,
		embeddingProvider: embeddingProvider,
		detectorCfg:       detectorCfg,
		milestoneFloor:    milestoneFloor,
		log:               log,
	}
}

// Register binds every job to the scheduler.
func (j *EnrichmentJobs) Register(scheduler *schedulerService) {
	scheduler.RegisterHandler(constant.TaskSemanticExtraction, j.SemanticExtraction)
	scheduler.RegisterHandler(constant.TaskIntentMatching, j.IntentMatching)
	scheduler.RegisterHandler(constant.TaskIntentLabel, j.IntentLabel)
	scheduler.RegisterHandler(constant.TaskIntentSummary, j.IntentSummary)
	scheduler.RegisterHandler(constant.TaskIntentInsights, j.IntentInsights)
	scheduler.RegisterHandler(constant.TaskMilestoneCheck, j.MilestoneCheck)
	scheduler.RegisterHandler(constant.TaskMergeScan, j.MergeScan)
	scheduler.RegisterHandler(constant.TaskNudgeGeneration, j.NudgeGeneration)
}

// malformed marks model output that survived no repair; the next attempt
// usually parses, so it retries as transient.
func malformed(err error) error {
	return &entity.TaskError{
		Kind:    entity.TaskErrorTransient,
		Message: "temporarily malformed model output: " + err.Error(),
	}
}

func (j *EnrichmentJobs) loadPage(ctx context.Context, task *entity.Task) (*entity.Page, error) {
	if task.PageId == nil {
		return nil, &entity.TaskError{Kind: entity.TaskErrorPermanent, Message: "task has no page target"}
	}
	uow := j.uowFactory.NewUnitOfWork(ctx)
	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: *task.PageId})
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, entityGone("page", *task.PageId)
	}
	return page, nil
}

func (j *EnrichmentJobs) loadIntent(ctx context.Context, task *entity.Task) (*entity.Intent, error) {
	if task.IntentId == nil {
		return nil, &entity.TaskError{Kind: entity.TaskErrorPermanent, Message: "task has no intent target"}
	}
	uow := j.uowFactory.NewUnitOfWork(ctx)
	intent, err := uow.IntentRepository().FindOne(ctx, specification.ByID{ID: *task.IntentId})
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, entityGone("intent", *task.IntentId)
	}
	return intent, nil
}

type semanticResult struct {
	Concepts      []string `json:"concepts"`
	Entities      []string `json:"entities"`
	PrimaryAction string   `json:"primary_action"`
	ContentType   string   `json:"content_type"`
	Sentiment     string   `json:"sentiment"`
}

func (j *EnrichmentJobs) SemanticExtraction(ctx context.Context, task *entity.Task) (map[string]interface{}, error) {
	page, err := j.loadPage(ctx, task)
	if err != nil {
		return nil, err
	}

	selections := utils.FirstChunk(strings.Join(page.Interaction.TextSelections, "\n"), 1500)
	prompt := fmt.Sprintf(constant.SemanticExtractionPrompt, page.Url, page.Title, selections)
	raw, err := j.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, err
	}

	var result semanticResult
	outcome, err := llmjson.Parse(raw, &result)
	if outcome == llmjson.OutcomeErr {
		return nil, malformed(err)
	}

	var vector []float32
	embedText := page.Title + "\n" + strings.Join(result.Concepts, " ")
	if res, embErr := j.embeddingProvider.Generate(embedText, "RETRIEVAL_DOCUMENT"); embErr == nil {
		vector = res.Embedding.Values
	} else {
		// The profile is still useful without the vector; similarity falls
		// back to keyword overlap.
		j.log.Warn("jobs", "embedding generation failed", map[string]interface{}{
			"page_id": page.Id, "error": embErr.Error(),
		})
	}

	sem := &entity.SemanticFeatures{
		Concepts:      result.Concepts,
		Entities:      result.Entities,
		PrimaryAction: result.PrimaryAction,
		ContentType:   result.ContentType,
		Sentiment:     result.Sentiment,
	}
	if err := j.storeService.SetPageSemantics(ctx, page.Id, sem, vector); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"concepts":     len(result.Concepts),
		"entities":     len(result.Entities),
		"content_type": result.ContentType,
		"embedded":     len(vector) > 0,
	}, nil
}

type matchResult struct {
	IntentId   string  `json:"intent_id"`
	Confidence float64 `json:"confidence"`
	LabelHint  string  `json:"label_hint"`
}

func (j *EnrichmentJobs) IntentMatching(ctx context.Context, task *entity.Task) (map[string]interface{}, error) {
	page, err := j.loadPage(ctx, task)
	if err != nil {
		return nil, err
	}

	var concepts []string
	if page.Semantics != nil {
		concepts = page.Semantics.Concepts
	}

	uow := j.uowFactory.NewUnitOfWork(ctx)
	candidates, err := uow.IntentRepository().FindAll(ctx,
		specification.ByStatusIn{Statuses: []string{entity.IntentStatusActive, entity.IntentStatusEmerging}},
		specification.OrderBy{Field: "last_updated", Desc: true},
		specification.Pagination{Limit: j.detectorCfg.MaxIntents},
	)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		intentId, err := j.storeService.CreateIntentForPage(ctx, page.Id, labelHintFrom(concepts, page.Title), 0.5)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"intent_id": intentId.String(), "created": true}, nil
	}

	var lines []string
	for _, intent := range candidates {
		top := signals.TopKeywords(intent.KeywordWeights(), 8)
		lines = append(lines, fmt.Sprintf("- id=%s label=%q keywords=%s",
			intent.Id, intent.Label, strings.Join(top, ", ")))
	}
	prompt := fmt.Sprintf(constant.IntentMatchingPrompt,
		page.Title, page.Url, strings.Join(concepts, ", "), strings.Join(lines, "\n"))
	raw, err := j.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, err
	}

	var result matchResult
	outcome, err := llmjson.Parse(raw, &result)
	if outcome == llmjson.OutcomeErr {
		return nil, malformed(err)
	}

	if intentId, parseErr := uuid.Parse(result.IntentId); parseErr == nil && intentId != uuid.Nil {
		if err := j.storeService.AssignPrimaryIntent(ctx, page.Id, intentId, result.Confidence, true); err != nil {
			return nil, err
		}
		return map[string]interface{}{"intent_id": intentId.String(), "confidence": result.Confidence}, nil
	}

	hint := result.LabelHint
	if hint == "" {
		hint = labelHintFrom(concepts, page.Title)
	}
	intentId, err := j.storeService.CreateIntentForPage(ctx, page.Id, hint, result.Confidence)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"intent_id": intentId.String(), "created": true}, nil
}

func labelHintFrom(concepts []string, title string) string {
	if len(concepts) > 0 {
		n := len(concepts)
		if n > 3 {
			n = 3
		}
		return strings.Join(concepts[:n], ", ")
	}
	return title
}

type labelResult struct {
	Label      string  `json:"label"`
	Goal       string  `json:"goal"`
	Confidence float64 `json:"confidence"`
}

func (j *EnrichmentJobs) IntentLabel(ctx context.Context, task *entity.Task) (map[string]interface{}, error) {
	intent, err := j.loadIntent(ctx, task)
	if err != nil {
		return nil, err
	}
	if entity.IsTerminalIntentStatus(intent.Status) {
		return map[string]interface{}{"skipped": intent.Status}, nil
	}

	titles, err := j.samplePageTitles(ctx, intent, 5)
	if err != nil {
		return nil, err
	}
	top := signals.TopKeywords(intent.KeywordWeights(), 15)
	prompt := fmt.Sprintf(constant.IntentLabelPrompt,
		strings.Join(top, ", "), strings.Join(intent.Signals.Domains, ", "), strings.Join(titles, "\n"))
	raw, err := j.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return nil, err
	}

	var result labelResult
	outcome, err := llmjson.Parse(raw, &result)
	if outcome == llmjson.OutcomeErr {
		return nil, malformed(err)
	}
	if result.Label == "" {
		return nil, malformed(fmt.Errorf("empty label"))
	}

	if err := j.storeService.SetIntentLabel(ctx, intent.Id, result.Label, result.Goal, result.Confidence); err != nil {
		return nil, err
	}
	return map[string]interface{}{"label": result.Label, "confidence": result.Confidence}, nil
}

func (j *EnrichmentJobs) IntentSummary(ctx context.Context, task *entity.Task) (map[string]interface{}, error) {
	intent, err := j.loadIntent(ctx, task)
	if err != nil {
		return nil, err
	}
	if entity.IsTerminalIntentStatus(intent.Status) {
		return map[string]interface{}{"skipped": intent.Status}, nil
	}

	pages, err := j.intentPages(ctx, intent)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, page := range pages {
		lines = append(lines, fmt.Sprintf("%s - %s", page.Title, page.Url))
	}
	prompt := fmt.Sprintf(constant.IntentSummaryPrompt, intent.Label, intent.Goal, strings.Join(lines, "\n"))
	raw, err := j.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return nil, err
	}

	var result struct {
		Summary string `json:"summary"`
	}
	outcome, err := llmjson.Parse(raw, &result)
	if outcome == llmjson.OutcomeErr {
		return nil, malformed(err)
	}

	if err := j.storeService.SetIntentSummary(ctx, intent.Id, result.Summary); err != nil {
		return nil, err
	}
	return map[string]interface{}{"summary_length": len(result.Summary)}, nil
}

func (j *EnrichmentJobs) IntentInsights(ctx context.Context, task *entity.Task) (map[string]interface{}, error) {
	intent, err := j.loadIntent(ctx, task)
	if err != nil {
		return nil, err
	}
	if entity.IsTerminalIntentStatus(intent.Status) {
		return map[string]interface{}{"skipped": intent.Status}, nil
	}

	top := signals.TopKeywords(intent.KeywordWeights(), 15)
	prompt := fmt.Sprintf(constant.IntentInsightsPrompt, intent.Label, intent.Summary, strings.Join(top, ", "))
	raw, err := j.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.4))
	if err != nil {
		return nil, err
	}

	var result struct {
		Insights  []string `json:"insights"`
		NextSteps []string `json:"next_steps"`
	}
	outcome, err := llmjson.Parse(raw, &result)
	if outcome == llmjson.OutcomeErr {
		return nil, malformed(err)
	}

	if err := j.storeService.SetIntentInsights(ctx, intent.Id, result.Insights, result.NextSteps); err != nil {
		return nil, err
	}
	return map[string]interface{}{"insights": len(result.Insights), "next_steps": len(result.NextSteps)}, nil
}

type milestoneResult struct {
	Completed     bool    `json:"completed"`
	NextMilestone string  `json:"next_milestone"`
	Confidence    float64 `json:"confidence"`
}

func (j *EnrichmentJobs) MilestoneCheck(ctx context.Context, task *entity.Task) (map[string]interface{}, error) {
	intent, err := j.loadIntent(ctx, task)
	if err != nil {
		return nil, err
	}
	if entity.IsTerminalIntentStatus(intent.Status) {
		return map[string]interface{}{"skipped": intent.Status}, nil
	}

	inactiveDays := int(time.Since(intent.LastUpdated).Hours() / 24)
	prompt := fmt.Sprintf(constant.MilestoneCheckPrompt, intent.Label, intent.Goal, intent.Summary, inactiveDays)
	raw, err := j.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return nil, err
	}

	var result milestoneResult
	outcome, err := llmjson.Parse(raw, &result)
	if outcome == llmjson.OutcomeErr {
		return nil, malformed(err)
	}

	// Low-confidence verdicts are recorded but change nothing.
	if result.Completed && result.Confidence >= j.milestoneFloor {
		if err := j.storeService.CompleteIntent(ctx, intent.Id); err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{
		"completed":      result.Completed,
		"next_milestone": result.NextMilestone,
		"confidence":     result.Confidence,
	}, nil
}

func (j *EnrichmentJobs) MergeScan(ctx context.Context, task *entity.Task) (map[string]interface{}, error) {
	outcomes, err := j.detectorService.Scan(ctx)
	if err != nil {
		return nil, err
	}
	merges := 0
	for _, o := range outcomes {
		if o.Merged {
			merges++
		}
	}
	return map[string]interface{}{"candidates": len(outcomes), "merged": merges}, nil
}

func (j *EnrichmentJobs) NudgeGeneration(ctx context.Context, task *entity.Task) (map[string]interface{}, error) {
	created, err := j.suggestionService.Run(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"created": created}, nil
}

func (j *EnrichmentJobs) intentPages(ctx context.Context, intent *entity.Intent) ([]*entity.Page, error) {
	if len(intent.PageIds) == 0 {
		return nil, nil
	}
	uow := j.uowFactory.NewUnitOfWork(ctx)
	return uow.PageRepository().FindAll(ctx, specification.ByIDs{IDs: intent.PageIds})
}

func (j *EnrichmentJobs) samplePageTitles(ctx context.Context, intent *entity.Intent, limit int) ([]string, error) {
	pages, err := j.intentPages(ctx, intent)
	if err != nil {
		return nil, err
	}
	var titles []string
	for _, page := range pages {
		if page.Title == "" {
			continue
		}
		titles = append(titles, "- "+page.Title)
		if len(titles) >= limit {
			break
		}
	}
	return titles, nil
}
