// Package llm holds the generation and embedding model clients.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Supported providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelName() string
}

// Embedder turns text into dense vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// Config selects and configures a provider.
type Config struct {
	Provider       string
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	// Timeout bounds every HTTP request.
	Timeout time.Duration
	// Retries is the number of attempts for embedding requests.
	Retries uint
}

// New returns the generator and embedder for the configured provider.
func New(cfg Config) (Generator, Embedder, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		c := NewOllama(cfg)
		return c, c, nil
	case ProviderOpenAI:
		c := NewOpenAI(cfg)
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unsupported model provider: %q", cfg.Provider)
	}
}
