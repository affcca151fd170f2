package answer

import (
	"context"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sha1n/mcp-doc-agent/internal/index"
)

const snapshotKey = "snapshot"

// SnapshotLoader reads the persisted index.
type SnapshotLoader interface {
	Load(ctx context.Context) (*index.Snapshot, error)
}

// Entry is a cached snapshot with its lazily built lexical index. An entry stays usable
// after Invalidate for queries that already hold it.
type Entry struct {
	Snapshot *index.Snapshot

	once    sync.Once
	lexical *LexicalIndex
	lexErr  error
}

// Lexical builds the full-text index on first use.
func (e *Entry) Lexical() (*LexicalIndex, error) {
	e.once.Do(func() {
		e.lexical, e.lexErr = NewLexicalIndex(e.Snapshot.Chunks)
	})
	return e.lexical, e.lexErr
}

// Cache holds the current snapshot for the process. Get loads it on first use and
// Invalidate drops it after the index is rebuilt.
type Cache struct {
	loader SnapshotLoader
	store  *gocache.Cache
	mu     sync.Mutex
}

// NewCache creates an empty cache over loader.
func NewCache(loader SnapshotLoader) *Cache {
	return &Cache{
		loader: loader,
		store:  gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns the cached entry, loading the snapshot when absent. Load errors are not cached.
func (c *Cache) Get(ctx context.Context) (*Entry, error) {
	if v, ok := c.store.Get(snapshotKey); ok {
		return v.(*Entry), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.store.Get(snapshotKey); ok {
		return v.(*Entry), nil
	}

	snap, err := c.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	entry := &Entry{Snapshot: snap}
	c.store.Set(snapshotKey, entry, gocache.NoExpiration)
	return entry, nil
}

// Invalidate drops the cached snapshot; the next Get reloads it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Delete(snapshotKey)
}

// Loaded reports whether a snapshot is cached.
func (c *Cache) Loaded() bool {
	_, ok := c.store.Get(snapshotKey)
	return ok
}
