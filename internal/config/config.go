package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Ai         AIConfig
	Scheduler  SchedulerConfig
	Detector   DetectorConfig
	Suggestion SuggestionConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	PageEventTopic     string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider       string // "ollama" or "gemini"
	LLMModel          string
	OllamaBaseURL     string
	GeminiAPIKey      string
	EmbeddingProvider string // "ollama" or "gemini"
	EmbeddingModel    string
}

type SchedulerConfig struct {
	MaxConcurrent  int
	MaxRetries     int
	BackoffBase    time.Duration
	CallTimeout    time.Duration
	PollInterval   time.Duration
	DedupWindow    time.Duration // same-URL visit merge window
}

type DetectorConfig struct {
	MaxIntents       int     // pairwise scan bound, most recently updated first
	TopKeywords      int     // top-K concepts per intent for overlap
	OverlapFloor     float64 // hard floor; below it no candidate, no LLM call
	OverlapStrong    float64 // overlap that qualifies without a shared domain
	MergeConfidence  float64 // external decision threshold to execute a merge
}

type SuggestionConfig struct {
	DailyCap        int
	DormantAfter    time.Duration
	ExpireAfter     time.Duration
	MilestoneFloor  float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			PageEventTopic:     getEnv("PAGE_EVENT_TOPIC", "page.events"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Scheduler: SchedulerConfig{
			MaxConcurrent: getEnvAsInt("SCHEDULER_MAX_CONCURRENT", 2),
			MaxRetries:    getEnvAsInt("SCHEDULER_MAX_RETRIES", 3),
			BackoffBase:   getEnvAsDuration("SCHEDULER_BACKOFF_BASE", 2*time.Second),
			CallTimeout:   getEnvAsDuration("SCHEDULER_CALL_TIMEOUT", 60*time.Second),
			PollInterval:  getEnvAsDuration("SCHEDULER_POLL_INTERVAL", 500*time.Millisecond),
			DedupWindow:   getEnvAsDuration("PAGE_DEDUP_WINDOW", 30*time.Second),
		},
		Detector: DetectorConfig{
			MaxIntents:      getEnvAsInt("DETECTOR_MAX_INTENTS", 10),
			TopKeywords:     getEnvAsInt("DETECTOR_TOP_KEYWORDS", 20),
			OverlapFloor:    getEnvAsFloat("DETECTOR_OVERLAP_FLOOR", 0.05),
			OverlapStrong:   getEnvAsFloat("DETECTOR_OVERLAP_STRONG", 0.30),
			MergeConfidence: getEnvAsFloat("DETECTOR_MERGE_CONFIDENCE", 0.85),
		},
		Suggestion: SuggestionConfig{
			DailyCap:       getEnvAsInt("NUDGE_DAILY_CAP", 3),
			DormantAfter:   getEnvAsDuration("INTENT_DORMANT_AFTER", 72*time.Hour),
			ExpireAfter:    getEnvAsDuration("INTENT_EXPIRE_AFTER", 30*24*time.Hour),
			MilestoneFloor: getEnvAsFloat("NUDGE_MILESTONE_FLOOR", 0.6),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
