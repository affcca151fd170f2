// Package router classifies free-text queries into structured decisions.
package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
	"github.com/sha1n/mcp-doc-agent/internal/llm"
	"github.com/sha1n/mcp-doc-agent/internal/prompts"
)

const (
	DefaultTemperature = 0.1
	DefaultTimeout     = 60 * time.Second
)

// Config tunes the routing call.
type Config struct {
	Temperature float64
	Timeout     time.Duration
}

// Router asks the chat model to pick an intent for each query.
type Router struct {
	gen     llm.Generator
	prompts *prompts.Set
	cfg     Config
	logger  *slog.Logger
}

// New creates a Router. A nil prompt set uses the built-in templates.
func New(gen llm.Generator, p *prompts.Set, cfg Config, logger *slog.Logger) *Router {
	if p == nil {
		p = prompts.Defaults()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{gen: gen, prompts: p, cfg: cfg, logger: logger}
}

// Classify makes exactly one model call. Malformed output falls back to a knowledge
// search; only a failed model call is returned as an error.
func (r *Router) Classify(ctx context.Context, query string) (domain.Decision, error) {
	prompt, err := r.prompts.RenderRouting(query)
	if err != nil {
		return domain.Decision{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	raw, err := r.gen.Generate(ctx, prompt, llm.GenerateOptions{Temperature: r.cfg.Temperature})
	if err != nil {
		return domain.Decision{}, &domain.ModelError{Op: "classify", Err: err}
	}

	decision := ParseDecision(raw, query)
	r.logger.Debug("Query classified", "intent", decision.Intent, "params", decision.Params)
	return decision, nil
}
