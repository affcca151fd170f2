package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sha1n/mcp-doc-agent/internal/agent"
	"github.com/sha1n/mcp-doc-agent/internal/answer"
	"github.com/sha1n/mcp-doc-agent/internal/chunker"
	"github.com/sha1n/mcp-doc-agent/internal/config"
	"github.com/sha1n/mcp-doc-agent/internal/index"
	"github.com/sha1n/mcp-doc-agent/internal/llm"
	"github.com/sha1n/mcp-doc-agent/internal/loader"
	"github.com/sha1n/mcp-doc-agent/internal/locator"
	"github.com/sha1n/mcp-doc-agent/internal/lock"
	"github.com/sha1n/mcp-doc-agent/internal/objstore"
	"github.com/sha1n/mcp-doc-agent/internal/prompts"
	"github.com/sha1n/mcp-doc-agent/internal/router"
)

// embedRetries is the number of attempts of an embedding request.
const embedRetries = 3

// Components is the wired application.
type Components struct {
	Agent   *agent.Agent
	Manager *index.Manager
	// Files serves signed links; nil unless the filesystem backend is used.
	Files   *objstore.FS
	closers []func() error
}

// Close releases the storage client.
func (c *Components) Close() error {
	var errs []error
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// BuildComponents opens the configured storage and model clients and wires the agent.
func BuildComponents(ctx context.Context, settings *config.Settings) (*Components, error) {
	gen, emb, err := llm.New(llm.Config{
		Provider:       settings.Models.Provider,
		BaseURL:        settings.Models.BaseURL,
		APIKey:         settings.Models.APIKey,
		ChatModel:      settings.Models.ChatModel,
		EmbeddingModel: settings.Models.EmbeddingModel,
		Timeout:        settings.Timeouts.Model,
		Retries:        embedRetries,
	})
	if err != nil {
		return nil, err
	}

	var (
		store   objstore.Store
		closers []func() error
	)
	switch settings.Storage.Backend {
	case config.StorageFS:
		store = objstore.NewOsFS(settings.Storage.FSRoot, settings.Storage.FSBaseURL, []byte(settings.Storage.SigningKey))
	case config.StorageGCS, "":
		gcs, err := objstore.NewGCS(ctx, objstore.GCSConfig{
			Bucket:          settings.Storage.Bucket,
			CredentialsFile: settings.Storage.CredentialsFile,
			SignerEmail:     settings.Storage.SignerEmail,
		})
		if err != nil {
			return nil, err
		}
		store = gcs
		closers = append(closers, gcs.Close)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", settings.Storage.Backend)
	}

	c, err := Assemble(settings, store, gen, emb, slog.Default())
	if err != nil {
		for _, fn := range closers {
			_ = fn()
		}
		return nil, err
	}
	c.closers = closers
	return c, nil
}

// Assemble wires the agent over already opened collaborators.
func Assemble(settings *config.Settings, store objstore.Store, gen llm.Generator, emb llm.Embedder, logger *slog.Logger) (*Components, error) {
	set := prompts.Defaults()
	if settings.Prompts.File != "" {
		loaded, err := prompts.Load(settings.Prompts.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompts: %w", err)
		}
		set = loaded
	}

	rt := router.New(gen, set, router.Config{
		Temperature: settings.Models.RoutingTemperature,
		Timeout:     settings.Timeouts.Model,
	}, logger)

	loc := locator.New(store, locator.Config{
		Roots:   settings.Corpus.SearchRoots,
		URLTTL:  settings.Storage.URLTTL,
		Timeout: settings.Timeouts.Storage,
	}, logger)

	splitter := chunker.New(
		chunker.WithChunkSize(settings.Index.ChunkSize),
		chunker.WithOverlap(settings.Index.ChunkOverlap),
	)
	manager := index.NewManager(store, loader.NewRegistry(), splitter, emb, index.Config{
		Root:            settings.Corpus.Root,
		ExcludePrefixes: settings.Corpus.ExcludePrefix,
		IndexFolder:     settings.Corpus.IndexFolder,
		Extensions:      settings.Corpus.Extensions,
		EmbedBatchSize:  settings.Index.EmbedBatchSize,
		StorageTimeout:  settings.Timeouts.Storage,
		ModelTimeout:    settings.Timeouts.Model,
	}, logger)
	manager.OnProgress(func(step, total int, label string) {
		logger.Info("Index sync progress", "step", step, "total", total, "stage", label)
	})

	cache := answer.NewCache(manager)
	ans := answer.New(cache, emb, gen, set, answer.Config{
		TopK:             settings.Answer.TopK,
		MaxContextTokens: settings.Answer.MaxContextTokens,
		Hybrid:           settings.Answer.Hybrid,
		Temperature:      settings.Models.AnswerTemperature,
		Timeout:          settings.Timeouts.Model,
	}, logger)

	a := agent.New(agent.Deps{
		Router:      rt,
		Locator:     loc,
		Indexer:     manager,
		Answerer:    ans,
		Cache:       cache,
		Guard:       lock.NewGuard(settings.Index.LockFile),
		SyncTimeout: settings.Timeouts.Sync,
	}, logger)

	c := &Components{Agent: a, Manager: manager}
	if fs, ok := store.(*objstore.FS); ok {
		c.Files = fs
	}
	return c, nil
}
