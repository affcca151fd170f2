// Package index keeps a semantic index of the corpus in sync with object storage.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sha1n/mcp-doc-agent/internal/chunker"
	"github.com/sha1n/mcp-doc-agent/internal/domain"
	"github.com/sha1n/mcp-doc-agent/internal/llm"
	"github.com/sha1n/mcp-doc-agent/internal/loader"
	"github.com/sha1n/mcp-doc-agent/internal/objstore"
)

const (
	// MaxParallelLoads bounds concurrent document downloads during a rebuild.
	MaxParallelLoads = 4

	DefaultEmbedBatchSize = 32
	DefaultStorageTimeout = 30 * time.Second
	DefaultModelTimeout   = 2 * time.Minute

	// TotalSteps is the number of progress steps reported by Synchronize.
	TotalSteps = 5
)

// Status messages.
const (
	MsgUpToDate = "index is already up to date"
	MsgEmpty    = "no indexable documents found"
)

var (
	// ErrEmptyCorpus is returned when the corpus has no indexable documents.
	ErrEmptyCorpus = errors.New(MsgEmpty)

	// ErrNoDocumentsLoaded is returned when every document failed to load.
	ErrNoDocumentsLoaded = errors.New("no document could be loaded")
)

// Status is the outcome of a synchronization.
type Status struct {
	Changed   bool   `json:"changed"`
	Documents int    `json:"documents"`
	Skipped   int    `json:"skipped"`
	Chunks    int    `json:"chunks"`
	Message   string `json:"message"`
}

// ProgressFunc observes synchronization steps, numbered from 1 to total.
type ProgressFunc func(step, total int, label string)

// Config configures a Manager.
type Config struct {
	Root            string
	ExcludePrefixes []string
	IndexFolder     string
	Extensions      []string
	EmbedBatchSize  int
	StorageTimeout  time.Duration
	ModelTimeout    time.Duration
}

// Manager rebuilds the semantic index whenever the corpus drifts from the manifest.
// It does not serialize concurrent calls; callers hold a lock around Synchronize.
type Manager struct {
	store    objstore.Store
	loaders  *loader.Registry
	splitter *chunker.Splitter
	embedder llm.Embedder
	filter   *CorpusFilter
	cfg      Config
	progress ProgressFunc
	logger   *slog.Logger
}

// NewManager creates a Manager. The index folder is always excluded from the corpus.
func NewManager(
	store objstore.Store,
	loaders *loader.Registry,
	splitter *chunker.Splitter,
	embedder llm.Embedder,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = DefaultEmbedBatchSize
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = DefaultStorageTimeout
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = DefaultModelTimeout
	}
	cfg.IndexFolder = normalizePrefix(cfg.IndexFolder)
	if logger == nil {
		logger = slog.Default()
	}

	excludes := append([]string{cfg.IndexFolder}, cfg.ExcludePrefixes...)
	filter := NewCorpusFilter(cfg.Root, excludes, cfg.Extensions)

	supported := loaders.Extensions()
	for _, ext := range filter.extensions {
		if !slices.Contains(supported, ext) {
			logger.Warn("No loader for corpus extension, matching documents will be skipped",
				"extension", ext, "supported", supported)
		}
	}

	return &Manager{
		store:    store,
		loaders:  loaders,
		splitter: splitter,
		embedder: embedder,
		filter:   filter,
		cfg:      cfg,
		progress: func(int, int, string) {},
		logger:   logger,
	}
}

// OnProgress registers a progress observer.
func (m *Manager) OnProgress(fn ProgressFunc) {
	if fn != nil {
		m.progress = fn
	}
}

// CorpusState lists the corpus root and records every indexable document.
func (m *Manager) CorpusState(ctx context.Context) (domain.CorpusState, error) {
	lctx, cancel := context.WithTimeout(ctx, m.cfg.StorageTimeout)
	defer cancel()

	objects, err := m.store.List(lctx, m.filter.Root())
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Path: m.filter.Root(), Err: err}
	}

	state := make(domain.CorpusState)
	for _, o := range objects {
		if m.filter.Include(o) {
			state[o.Path] = o.LastModified.UTC()
		}
	}
	return state, nil
}

// IndexReady reports whether both index artifacts exist.
func (m *Manager) IndexReady(ctx context.Context) (bool, error) {
	for _, name := range []string{VectorsFilename, ChunksFilename} {
		p := m.artifactPath(name)
		sctx, cancel := context.WithTimeout(ctx, m.cfg.StorageTimeout)
		ok, err := m.store.Exists(sctx, p)
		cancel()
		if err != nil {
			return false, &domain.StorageError{Op: "stat", Path: p, Err: err}
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Load downloads and decodes the persisted index. A missing or inconsistent index is
// reported as domain.ErrIndexUnavailable.
func (m *Manager) Load(ctx context.Context) (*Snapshot, error) {
	vectors, err := m.download(ctx, m.artifactPath(VectorsFilename))
	if err != nil {
		return nil, m.loadError(err)
	}
	chunks, err := m.download(ctx, m.artifactPath(ChunksFilename))
	if err != nil {
		return nil, m.loadError(err)
	}

	snap, err := DecodeSnapshot(vectors, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	m.logger.Info("Loaded semantic index", "chunks", snap.Len(), "model", snap.Model, "built_at", snap.BuiltAt)
	return snap, nil
}

func (m *Manager) loadError(err error) error {
	if errors.Is(err, objstore.ErrNotFound) {
		return domain.ErrIndexUnavailable
	}
	return err
}

// Synchronize compares the corpus with the manifest and rebuilds the whole index when
// they differ. The manifest is cleared before the artifacts are replaced and written
// last, so an interrupted write always forces the next run to rebuild.
func (m *Manager) Synchronize(ctx context.Context) (Status, error) {
	m.progress(1, TotalSteps, "Checking for changes")
	state, err := m.CorpusState(ctx)
	if err != nil {
		return Status{}, err
	}
	if len(state) == 0 {
		return Status{Message: MsgEmpty}, ErrEmptyCorpus
	}

	previous := m.loadManifest(ctx)
	if state.Equal(previous) {
		ready, err := m.IndexReady(ctx)
		if err != nil {
			return Status{}, err
		}
		if ready {
			m.progress(TotalSteps, TotalSteps, "Done")
			m.logger.Info("Index is up to date", "documents", len(state))
			return Status{Documents: len(state), Message: MsgUpToDate}, nil
		}
		m.logger.Warn("Manifest is current but index artifacts are missing, rebuilding")
	}

	diff := state.Diff(previous)
	m.logger.Info("Corpus changed, rebuilding index",
		"documents", len(state),
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"modified", len(diff.Modified))

	m.progress(2, TotalSteps, "Loading documents")
	chunks, loaded, skipped := m.loadDocuments(ctx, state.Paths())
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if loaded == 0 {
		return Status{Skipped: skipped}, ErrNoDocumentsLoaded
	}

	m.progress(3, TotalSteps, "Generating embeddings")
	vectors, err := m.embed(ctx, chunks)
	if err != nil {
		return Status{}, &domain.ModelError{Op: "embed", Err: err}
	}

	snap, err := NewSnapshot(chunks, vectors, state.Fingerprint(), m.embedder.ModelName())
	if err != nil {
		return Status{}, &domain.ModelError{Op: "embed", Err: err}
	}

	m.progress(4, TotalSteps, "Saving index")
	if err := m.persist(ctx, snap, state); err != nil {
		return Status{}, err
	}

	m.progress(5, TotalSteps, "Done")
	status := Status{
		Changed:   true,
		Documents: loaded,
		Skipped:   skipped,
		Chunks:    len(chunks),
		Message:   fmt.Sprintf("index rebuilt from %d documents (%d chunks, %d skipped)", loaded, len(chunks), skipped),
	}
	m.logger.Info("Index rebuilt", "documents", loaded, "chunks", len(chunks), "skipped", skipped)
	return status, nil
}

// loadDocuments downloads, extracts and chunks every path with bounded parallelism.
// Chunks keep the order of paths. Documents that fail or yield no text are skipped.
func (m *Manager) loadDocuments(ctx context.Context, paths []string) (chunks []domain.Chunk, loaded, skipped int) {
	results := make([][]domain.Chunk, len(paths))
	sem := make(chan struct{}, MaxParallelLoads)
	var wg sync.WaitGroup

	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			docChunks, err := m.loadDocument(ctx, p)
			if err != nil {
				m.logger.Warn("Skipping document", "path", p, "error", err)
				return
			}
			results[i] = docChunks
		}(i, p)
	}
	wg.Wait()

	for _, r := range results {
		if len(r) == 0 {
			skipped++
			continue
		}
		loaded++
		chunks = append(chunks, r...)
	}
	return chunks, loaded, skipped
}

func (m *Manager) loadDocument(ctx context.Context, p string) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := m.download(ctx, p)
	if err != nil {
		return nil, err
	}
	pages, err := m.loaders.Load(p, data)
	if err != nil {
		return nil, err
	}
	chunks := m.splitter.SplitPages(p, pages)
	if len(chunks) == 0 {
		return nil, errors.New("no extractable text")
	}
	return chunks, nil
}

// embed vectorizes chunk texts in batches. Any failure aborts the whole build.
func (m *Manager) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += m.cfg.EmbedBatchSize {
		end := min(start+m.cfg.EmbedBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		ectx, cancel := context.WithTimeout(ctx, m.cfg.ModelTimeout)
		batch, err := m.embedder.EmbedBatch(ectx, texts)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("batch at %d: %w", start, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("batch at %d: got %d vectors for %d texts", start, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
		m.logger.Debug("Embedded batch", "done", end, "total", len(chunks))
	}
	return vectors, nil
}

func (m *Manager) persist(ctx context.Context, snap *Snapshot, state domain.CorpusState) error {
	vectors, chunks, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := m.saveManifest(ctx, domain.CorpusState{}); err != nil {
		return err
	}
	if err := m.upload(ctx, m.artifactPath(VectorsFilename), vectors, "application/octet-stream"); err != nil {
		return err
	}
	if err := m.upload(ctx, m.artifactPath(ChunksFilename), chunks, "application/json"); err != nil {
		return err
	}
	return m.saveManifest(ctx, state)
}

func (m *Manager) artifactPath(name string) string {
	return m.cfg.IndexFolder + name
}

func (m *Manager) download(ctx context.Context, p string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.StorageTimeout)
	defer cancel()

	data, err := m.store.Download(ctx, p)
	if err != nil {
		return nil, &domain.StorageError{Op: "download", Path: p, Err: err}
	}
	return data, nil
}

func (m *Manager) upload(ctx context.Context, p string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.StorageTimeout)
	defer cancel()

	if err := m.store.Upload(ctx, p, data, contentType); err != nil {
		return &domain.StorageError{Op: "upload", Path: p, Err: err}
	}
	return nil
}
