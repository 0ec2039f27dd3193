package bootstrap

import (
	"log"

	"ai-intent-be/internal/config"
	"ai-intent-be/internal/controller"
	"ai-intent-be/internal/pkg/logger"
	"ai-intent-be/internal/repository/memory"
	"ai-intent-be/internal/repository/unitofwork"
	"ai-intent-be/internal/service"
	"ai-intent-be/pkg/embedding"
	"ai-intent-be/pkg/llm/factory"

	pkgNats "ai-intent-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	PageController   controller.IPageController
	IntentController controller.IIntentController
	TaskController   controller.ITaskController
	NudgeController  controller.INudgeController

	// Background services (exposed for main.go to run)
	ConsumerService  service.IConsumerService
	SchedulerService service.ISchedulerService
	StoreService     service.IStoreService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.EmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	visitCache := memory.NewVisitCache(cfg.Scheduler.DedupWindow)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.PageEventTopic, pubSub)

	storeService := service.NewStoreService(
		uowFactory,
		visitCache,
		cfg.Scheduler.DedupWindow,
		publisherService,
		natsPub,
		sysLogger,
	)
	detectorService := service.NewDetectorService(
		uowFactory,
		storeService,
		llmProvider,
		cfg.Detector,
		sysLogger,
	)
	suggestionService := service.NewSuggestionService(
		uowFactory,
		detectorService,
		nil, // no topic-graph collaborator configured; knowledge-gap rule stays off
		natsPub,
		cfg.Suggestion,
		sysLogger,
	)

	schedulerService := service.NewSchedulerService(uowFactory, cfg.Scheduler, sysLogger)
	jobs := service.NewEnrichmentJobs(
		uowFactory,
		storeService,
		detectorService,
		suggestionService,
		llmProvider,
		embeddingProvider,
		cfg.Detector,
		cfg.Suggestion.MilestoneFloor,
		sysLogger,
	)
	jobs.Register(schedulerService)

	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.PageEventTopic,
		schedulerService,
		sysLogger,
	)

	queryService := service.NewQueryService(uowFactory)

	// 6. Controllers
	return &Container{
		PageController:   controller.NewPageController(storeService, queryService),
		IntentController: controller.NewIntentController(storeService, queryService, publisherService),
		TaskController:   controller.NewTaskController(queryService, schedulerService),
		NudgeController:  controller.NewNudgeController(queryService, suggestionService),

		ConsumerService:  consumerService,
		SchedulerService: schedulerService,
		StoreService:     storeService,
		Logger:           sysLogger,
	}
}
