package answer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
)

func TestCache_GetLoadsOnce(t *testing.T) {
	loader := &stubLoader{snap: sampleSnapshot(t)}
	c := NewCache(loader)
	ctx := context.Background()

	if c.Loaded() {
		t.Error("Cache should start empty")
	}
	for range 3 {
		if _, err := c.Get(ctx); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}
	if loader.loads != 1 {
		t.Errorf("Expected a single load, got %d", loader.loads)
	}
	if !c.Loaded() {
		t.Error("Cache should be loaded")
	}
}

func TestCache_Invalidate(t *testing.T) {
	loader := &stubLoader{snap: sampleSnapshot(t)}
	c := NewCache(loader)
	ctx := context.Background()

	entry, _ := c.Get(ctx)
	if _, err := entry.Lexical(); err != nil {
		t.Fatalf("Lexical failed: %v", err)
	}

	c.Invalidate()
	if c.Loaded() {
		t.Error("Cache should be empty after Invalidate")
	}
	if _, err := c.Get(ctx); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loader.loads != 2 {
		t.Errorf("Expected reload after Invalidate, got %d loads", loader.loads)
	}

	c.Invalidate()
	c.Invalidate()
}

func TestCache_InvalidateKeepsHeldEntryUsable(t *testing.T) {
	c := NewCache(&stubLoader{snap: sampleSnapshot(t)})
	ctx := context.Background()

	entry, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	lex, err := entry.Lexical()
	if err != nil {
		t.Fatalf("Lexical failed: %v", err)
	}

	c.Invalidate()

	positions, err := lex.Search(ctx, "goggles", 3)
	if err != nil {
		t.Fatalf("Search after Invalidate failed: %v", err)
	}
	if len(positions) != 1 || positions[0] != 2 {
		t.Errorf("Search(goggles) = %v, want [2]", positions)
	}
}

func TestCache_InvalidateDuringLexicalBuild(t *testing.T) {
	c := NewCache(&stubLoader{snap: sampleSnapshot(t)})
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		entry, err := c.Get(ctx)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			lex, err := entry.Lexical()
			if err != nil {
				t.Errorf("Lexical failed: %v", err)
				return
			}
			if _, err := lex.Search(ctx, "goggles", 3); err != nil {
				t.Errorf("Search failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			c.Invalidate()
		}()
	}
	wg.Wait()
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	loader := &stubLoader{err: domain.ErrIndexUnavailable}
	c := NewCache(loader)
	ctx := context.Background()

	if _, err := c.Get(ctx); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("Expected ErrIndexUnavailable, got %v", err)
	}

	loader.err = nil
	loader.snap = sampleSnapshot(t)
	if _, err := c.Get(ctx); err != nil {
		t.Errorf("Get should succeed once the index exists: %v", err)
	}
}

func TestCache_ConcurrentGet(t *testing.T) {
	loader := &stubLoader{snap: sampleSnapshot(t)}
	c := NewCache(loader)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background()); err != nil {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if loader.loads != 1 {
		t.Errorf("Expected a single load, got %d", loader.loads)
	}
}

func TestLexicalIndex_Search(t *testing.T) {
	snap := sampleSnapshot(t)
	lex, err := NewLexicalIndex(snap.Chunks)
	if err != nil {
		t.Fatalf("NewLexicalIndex failed: %v", err)
	}

	positions, err := lex.Search(context.Background(), "goggles", 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(positions) != 1 || positions[0] != 2 {
		t.Errorf("Search(goggles) = %v, want [2]", positions)
	}

	positions, _ = lex.Search(context.Background(), "unrelated words", 3)
	if len(positions) != 0 {
		t.Errorf("Expected no hits, got %v", positions)
	}
}
