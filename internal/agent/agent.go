// Package agent routes natural-language queries to the locator or the answerer and
// renders their results for the serving surfaces.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
	"github.com/sha1n/mcp-doc-agent/internal/index"
	"github.com/sha1n/mcp-doc-agent/internal/lock"
)

// DefaultSyncTimeout bounds a whole synchronization run.
const DefaultSyncTimeout = 30 * time.Minute

// ErrSyncInProgress is returned when another synchronization holds the lock.
var ErrSyncInProgress = errors.New("index synchronization already in progress")

// Classifier turns a query into a decision.
type Classifier interface {
	Classify(ctx context.Context, query string) (domain.Decision, error)
}

// Finder looks documents up in storage.
type Finder interface {
	FindByKeywords(ctx context.Context, keywords string) ([]domain.DocumentRecord, error)
	ListByFolder(ctx context.Context, folder string) ([]domain.DocumentRecord, error)
}

// Indexer synchronizes the semantic index.
type Indexer interface {
	Synchronize(ctx context.Context) (index.Status, error)
	IndexReady(ctx context.Context) (bool, error)
}

// Responder answers questions from the index.
type Responder interface {
	Answer(ctx context.Context, question string) (string, error)
}

// SnapshotCache holds the index snapshot served to questions.
type SnapshotCache interface {
	Invalidate()
	Loaded() bool
}

// Deps are the collaborators of an Agent. Guard may be nil for an in-process lock.
type Deps struct {
	Router      Classifier
	Locator     Finder
	Indexer     Indexer
	Answerer    Responder
	Cache       SnapshotCache
	Guard       *lock.Guard
	SyncTimeout time.Duration
}

// Agent is the orchestration layer shared by the MCP server, the HTTP API and the CLI.
type Agent struct {
	deps    Deps
	syncing atomic.Bool
	logger  *slog.Logger
}

// New creates an Agent.
func New(deps Deps, logger *slog.Logger) *Agent {
	if deps.Guard == nil {
		deps.Guard = lock.NewGuard("")
	}
	if deps.SyncTimeout <= 0 {
		deps.SyncTimeout = DefaultSyncTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{deps: deps, logger: logger}
}

// Handle classifies the query and runs the chosen action. A failed action yields an
// error-kind response together with the error.
func (a *Agent) Handle(ctx context.Context, query string) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return errorResponse(domain.Decision{}, fmt.Errorf("query: %w", domain.ErrMissingParameter))
	}

	decision, err := a.deps.Router.Classify(ctx, query)
	if err != nil {
		return errorResponse(domain.FallbackDecision(query), err)
	}
	if !decision.Intent.Valid() {
		a.logger.Warn("Unknown intent, answering as a question", "intent", decision.Intent)
		decision = domain.FallbackDecision(query)
	}
	a.logger.Info("Query classified", "intent", decision.Intent, "params", decision.Params)

	if key := decision.Intent.RequiredParam(); decision.Param(key) == "" {
		return errorResponse(decision, fmt.Errorf("%s: %w", key, domain.ErrMissingParameter))
	}

	var resp Response
	switch decision.Intent {
	case domain.IntentFindFile:
		resp, err = a.FindFile(ctx, decision.Param(domain.ParamKeywords))
	case domain.IntentListFolder:
		resp, err = a.ListFolder(ctx, decision.Param(domain.ParamFolder))
	default:
		resp, err = a.Ask(ctx, decision.Param(domain.ParamQuestion))
	}
	resp.Decision = decision
	return resp, err
}

// FindFile looks up documents whose path contains every keyword.
func (a *Agent) FindFile(ctx context.Context, keywords string) (Response, error) {
	decision := domain.Decision{
		Intent: domain.IntentFindFile,
		Params: map[string]string{domain.ParamKeywords: keywords},
	}
	records, err := a.deps.Locator.FindByKeywords(ctx, keywords)
	if err != nil {
		return errorResponse(decision, err)
	}
	resp := presentRecords(records, fmt.Sprintf("No document matching %q was found.", strings.TrimSpace(keywords)))
	resp.Decision = decision
	return resp, nil
}

// ListFolder lists the documents of a category folder or of an extension.
func (a *Agent) ListFolder(ctx context.Context, folder string) (Response, error) {
	decision := domain.Decision{
		Intent: domain.IntentListFolder,
		Params: map[string]string{domain.ParamFolder: folder},
	}
	records, err := a.deps.Locator.ListByFolder(ctx, folder)
	if err != nil {
		return errorResponse(decision, err)
	}
	resp := presentRecords(records, fmt.Sprintf("No documents were found in %q.", strings.TrimSpace(folder)))
	resp.Decision = decision
	return resp, nil
}

// Ask answers a question from the semantic index. A missing index is reported as a
// warning rather than an error.
func (a *Agent) Ask(ctx context.Context, question string) (Response, error) {
	decision := domain.Decision{
		Intent: domain.IntentSearchKnowledge,
		Params: map[string]string{domain.ParamQuestion: question},
	}
	answer, err := a.deps.Answerer.Answer(ctx, question)
	switch {
	case errors.Is(err, domain.ErrIndexUnavailable):
		return Response{Kind: KindWarning, Text: MsgIndexNotReady, Decision: decision}, nil
	case err != nil:
		return errorResponse(decision, err)
	}
	return Response{Kind: KindText, Text: strings.TrimSpace(answer), Decision: decision}, nil
}

// Synchronize runs one index synchronization. Concurrent calls, in this process or
// another one sharing the lock file, fail fast with ErrSyncInProgress.
func (a *Agent) Synchronize(ctx context.Context) (index.Status, error) {
	release, ok, err := a.deps.Guard.TryAcquire()
	if err != nil {
		return index.Status{}, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return index.Status{}, ErrSyncInProgress
	}
	return a.synchronize(ctx, release)
}

// SynchronizeWait is Synchronize for batch callers: it waits up to the sync timeout
// for a running synchronization to finish instead of failing.
func (a *Agent) SynchronizeWait(ctx context.Context) (index.Status, error) {
	release, ok, err := a.deps.Guard.TryAcquire()
	if err != nil {
		return index.Status{}, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		a.logger.Info("Waiting for a running synchronization", "lock_file", a.deps.Guard.Path())
		release, err = a.deps.Guard.Acquire(ctx, a.deps.SyncTimeout)
		if errors.Is(err, lock.ErrLockTimeout) {
			return index.Status{}, ErrSyncInProgress
		}
		if err != nil {
			return index.Status{}, fmt.Errorf("acquire sync lock: %w", err)
		}
	}
	return a.synchronize(ctx, release)
}

func (a *Agent) synchronize(ctx context.Context, release func() error) (index.Status, error) {
	defer func() {
		if err := release(); err != nil {
			a.logger.Warn("Failed to release sync lock", "error", err)
		}
	}()

	a.syncing.Store(true)
	defer a.syncing.Store(false)

	ctx, cancel := context.WithTimeout(ctx, a.deps.SyncTimeout)
	defer cancel()

	start := time.Now()
	status, err := a.deps.Indexer.Synchronize(ctx)
	if err != nil {
		return status, err
	}
	if status.Changed && a.deps.Cache != nil {
		a.deps.Cache.Invalidate()
	}
	a.logger.Info("Index synchronized",
		"changed", status.Changed,
		"documents", status.Documents,
		"chunks", status.Chunks,
		"duration", time.Since(start))
	return status, nil
}

// IndexReady reports whether the index artifacts exist.
func (a *Agent) IndexReady(ctx context.Context) (bool, error) {
	return a.deps.Indexer.IndexReady(ctx)
}

// IndexLoaded reports whether an index snapshot is held in memory.
func (a *Agent) IndexLoaded() bool {
	return a.deps.Cache != nil && a.deps.Cache.Loaded()
}

// Syncing reports whether this process is currently synchronizing.
func (a *Agent) Syncing() bool {
	return a.syncing.Load()
}
