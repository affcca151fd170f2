package answer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
)

const (
	fieldText   = "text"
	fieldSource = "source"

	lexicalBatchSize = 200
)

// LexicalIndex is an in-memory full-text index over snapshot chunks. Document IDs
// are chunk positions in the snapshot. It holds no external resources and is
// released with its cache entry.
type LexicalIndex struct {
	idx bleve.Index
}

func lexicalMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt(fieldText, text)

	source := bleve.NewTextFieldMapping()
	source.Analyzer = keyword.Name
	doc.AddFieldMappingsAt(fieldSource, source)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}

// NewLexicalIndex indexes chunk texts in memory.
func NewLexicalIndex(chunks []domain.Chunk) (*LexicalIndex, error) {
	idx, err := bleve.NewMemOnly(lexicalMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create lexical index: %w", err)
	}

	batch := idx.NewBatch()
	for i, c := range chunks {
		doc := map[string]any{fieldText: c.Text, fieldSource: c.Source}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index chunk %d: %w", i, err)
		}
		if batch.Size() >= lexicalBatchSize {
			if err := idx.Batch(batch); err != nil {
				_ = idx.Close()
				return nil, fmt.Errorf("failed to index batch: %w", err)
			}
			batch = idx.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index batch: %w", err)
		}
	}

	return &LexicalIndex{idx: idx}, nil
}

// Search returns up to k chunk positions ranked by relevance to text.
func (l *LexicalIndex) Search(ctx context.Context, text string, k int) ([]int, error) {
	if k <= 0 {
		return nil, nil
	}

	q := bleve.NewMatchQuery(text)
	q.SetField(fieldText)
	req := bleve.NewSearchRequestOptions(q, k, 0, false)

	res, err := l.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	positions := make([]int, 0, len(res.Hits))
	for _, h := range res.Hits {
		i, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		positions = append(positions, i)
	}
	return positions, nil
}
