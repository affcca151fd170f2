// Package answer answers questions from the semantic index with retrieval-augmented generation.
package answer

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
	"github.com/sha1n/mcp-doc-agent/internal/index"
	"github.com/sha1n/mcp-doc-agent/internal/llm"
	"github.com/sha1n/mcp-doc-agent/internal/prompts"
)

const (
	DefaultTopK        = 5
	DefaultTemperature = 0.1
	DefaultTimeout     = 2 * time.Minute

	// rrfK is the rank offset of reciprocal-rank fusion.
	rrfK = 60

	contextSeparator = "\n\n---\n\n"
)

// Config tunes retrieval and generation.
type Config struct {
	TopK int
	// MaxContextTokens caps the retrieved context; zero disables the cap.
	MaxContextTokens int
	// Hybrid fuses vector and lexical rankings.
	Hybrid      bool
	Temperature float64
	Timeout     time.Duration
}

// Answerer embeds a question, retrieves the closest chunks and asks the chat model
// to answer from them.
type Answerer struct {
	cache    *Cache
	embedder llm.Embedder
	gen      llm.Generator
	prompts  *prompts.Set
	counter  TokenCounter
	cfg      Config
	logger   *slog.Logger
}

// New creates an Answerer reading snapshots from cache.
func New(cache *Cache, embedder llm.Embedder, gen llm.Generator, p *prompts.Set, cfg Config, logger *slog.Logger) *Answerer {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if p == nil {
		p = prompts.Defaults()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{
		cache:    cache,
		embedder: embedder,
		gen:      gen,
		prompts:  p,
		counter:  NewTiktokenCounter(DefaultEncoding),
		cfg:      cfg,
		logger:   logger,
	}
}

// SetTokenCounter replaces the context budget counter.
func (a *Answerer) SetTokenCounter(c TokenCounter) {
	if c != nil {
		a.counter = c
	}
}

// Answer returns the model's answer to question. It fails with domain.ErrIndexUnavailable
// before any model call when no index has been built.
func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.ErrMissingParameter
	}

	hits, err := a.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	prompt, err := a.prompts.RenderAnswer(a.buildContext(hits), question)
	if err != nil {
		return "", err
	}

	gctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	out, err := a.gen.Generate(gctx, prompt, llm.GenerateOptions{Temperature: a.cfg.Temperature})
	if err != nil {
		return "", &domain.ModelError{Op: "generate", Err: err}
	}
	return out, nil
}

// Retrieve returns the top-k chunks for question.
func (a *Answerer) Retrieve(ctx context.Context, question string) ([]index.Hit, error) {
	entry, err := a.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	snap := entry.Snapshot

	ectx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	vec, err := a.embedder.Embed(ectx, question)
	cancel()
	if err != nil {
		return nil, &domain.ModelError{Op: "embed", Err: err}
	}

	if index.Norm(vec) == 0 {
		a.logger.Warn("Question embedding is all zeros, using lexical retrieval")
		return a.lexicalHits(ctx, entry, question, a.cfg.TopK)
	}

	if !a.cfg.Hybrid {
		return snap.Search(vec, a.cfg.TopK), nil
	}

	dense := snap.Search(vec, a.cfg.TopK*2)
	sparse, err := a.lexicalHits(ctx, entry, question, a.cfg.TopK*2)
	if err != nil {
		a.logger.Warn("Lexical retrieval failed, using vector results only", "error", err)
		return truncate(dense, a.cfg.TopK), nil
	}
	return truncate(fuse(dense, sparse), a.cfg.TopK), nil
}

func (a *Answerer) lexicalHits(ctx context.Context, entry *Entry, question string, k int) ([]index.Hit, error) {
	lex, err := entry.Lexical()
	if err != nil {
		return nil, err
	}
	positions, err := lex.Search(ctx, question, k)
	if err != nil {
		return nil, err
	}

	chunks := entry.Snapshot.Chunks
	hits := make([]index.Hit, 0, len(positions))
	for rank, i := range positions {
		if i < 0 || i >= len(chunks) {
			continue
		}
		hits = append(hits, index.Hit{Index: i, Chunk: chunks[i], Score: 1 / float64(rrfK+rank+1)})
	}
	return hits, nil
}

// buildContext joins hits as cited passages until the token budget is spent.
// The first passage is always kept.
func (a *Answerer) buildContext(hits []index.Hit) string {
	var parts []string
	used := 0
	for _, h := range hits {
		passage := fmt.Sprintf("[%s p.%d]\n%s", h.Chunk.Source, h.Chunk.Page, h.Chunk.Text)
		if a.cfg.MaxContextTokens > 0 {
			n := a.counter.Count(passage)
			if len(parts) > 0 && used+n > a.cfg.MaxContextTokens {
				break
			}
			used += n
		}
		parts = append(parts, passage)
	}
	return strings.Join(parts, contextSeparator)
}

// fuse merges rankings by reciprocal-rank fusion.
func fuse(rankings ...[]index.Hit) []index.Hit {
	scores := map[int]float64{}
	byIndex := map[int]index.Hit{}
	var order []int

	for _, ranking := range rankings {
		for rank, h := range ranking {
			if _, seen := byIndex[h.Index]; !seen {
				byIndex[h.Index] = h
				order = append(order, h.Index)
			}
			scores[h.Index] += 1 / float64(rrfK+rank+1)
		}
	}

	out := make([]index.Hit, 0, len(order))
	for _, i := range order {
		h := byIndex[i]
		h.Score = scores[i]
		out = append(out, h)
	}
	slices.SortStableFunc(out, func(a, b index.Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

func truncate(hits []index.Hit, k int) []index.Hit {
	if len(hits) > k {
		return hits[:k]
	}
	return hits
}
