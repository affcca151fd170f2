package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Ollama defaults.
const (
	DefaultOllamaURL       = "http://localhost:11434"
	DefaultOllamaChatModel = "llama3.2"
	DefaultOllamaEmbedding = "nomic-embed-text"
	DefaultTimeout         = 120 * time.Second
)

// Ollama talks to the Ollama HTTP API.
type Ollama struct {
	conn           *connector
	chatModel      string
	embeddingModel string
}

var (
	_ Generator = (*Ollama)(nil)
	_ Embedder  = (*Ollama)(nil)
)

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewOllama creates an Ollama client, filling unset fields with defaults.
func NewOllama(cfg Config) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaURL
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultOllamaChatModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultOllamaEmbedding
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Ollama{
		conn:           newConnector(strings.TrimSuffix(cfg.BaseURL, "/"), cfg.Timeout, cfg.Retries, nil),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
	}
}

func (o *Ollama) ModelName() string { return o.embeddingModel }

// Generate runs a single non-streaming completion. It is never retried.
func (o *Ollama) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	req := ollamaGenerateRequest{
		Model:  o.chatModel,
		Prompt: prompt,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}

	var resp ollamaGenerateResponse
	if err := o.conn.post(ctx, "/api/generate", req, &resp); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return resp.Response, nil
}

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	req := ollamaEmbeddingRequest{Model: o.embeddingModel, Prompt: text}

	var resp ollamaEmbeddingResponse
	if err := o.conn.postWithRetry(ctx, "/api/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.New("ollama embed: empty embedding in response")
	}
	return resp.Embedding, nil
}

// EmbedBatch embeds texts one request at a time; the endpoint takes a single prompt.
func (o *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		v, err := o.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
