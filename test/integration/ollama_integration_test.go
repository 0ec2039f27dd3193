package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"ai-intent-be/pkg/llm"
	"ai-intent-be/pkg/llm/ollama"
	"ai-intent-be/pkg/llmjson"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultOllamaBaseURL = "http://localhost:11434"

func ollamaBaseURL() string {
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		return url
	}
	return defaultOllamaBaseURL
}

func requireOllama(t *testing.T) string {
	t.Helper()
	baseURL := ollamaBaseURL()
	client := http.Client{Timeout: 2 * time.Second}
	res, err := client.Get(baseURL + "/api/tags")
	if err != nil {
		t.Skipf("Skipping integration test: Ollama not reachable at %s", baseURL)
	}
	res.Body.Close()
	return baseURL
}

func TestOllamaGenerate(t *testing.T) {
	baseURL := requireOllama(t)
	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = "gemma:2b"
	}

	provider := ollama.NewOllamaProvider(baseURL, model)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	out, err := provider.Generate(ctx, "Reply with the single word: ready", llm.WithTemperature(0))
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	t.Logf("Ollama response: %s", out)
}

// TestOllamaStructuredOutput exercises the full enrichment path: prompt the
// model for JSON and run the response through the repair cascade, the same
// way the enrichment jobs consume model output.
func TestOllamaStructuredOutput(t *testing.T) {
	baseURL := requireOllama(t)
	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = "gemma:2b"
	}

	provider := ollama.NewOllamaProvider(baseURL, model)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	prompt := `Extract the main concepts from this page title as JSON.
Title: "Getting started with Go generics"
Respond with only: {"concepts": ["...", "..."]}`

	raw, err := provider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	require.NoError(t, err)

	var result struct {
		Concepts []string `json:"concepts"`
	}
	outcome, err := llmjson.Parse(raw, &result)
	require.NoError(t, err)
	assert.Equal(t, llmjson.OutcomeOk, outcome)
	assert.NotEmpty(t, result.Concepts)
	t.Logf("Extracted concepts: %v", result.Concepts)
}
