// Package chunker splits document text into overlapping chunks.
package chunker

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
	"github.com/sha1n/mcp-doc-agent/internal/loader"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 150
)

// Splitter cuts text into windows of at most size runes, with overlap runes shared
// between consecutive windows.
type Splitter struct {
	size    int
	overlap int
	newID   func() string
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the window size in runes.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.size = size
		}
	}
}

// WithOverlap sets the number of runes repeated at the start of the next window.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a Splitter. An overlap not smaller than the size is reset to the default ratio.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.size {
		s.overlap = s.size / 10
	}
	return s
}

// Split returns the chunks of text. A window prefers to end at whitespace found in
// its second half; otherwise it cuts at exactly size runes.
func (s *Splitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for {
		end := min(start+s.size, n)
		if end < n {
			for k := end; k > start+s.size/2; k-- {
				if unicode.IsSpace(runes[k]) {
					end = k
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}
		start = max(end-s.overlap, start+1)
	}
	return chunks
}

// SplitPages chunks every page of a document and tags each chunk with its source.
func (s *Splitter) SplitPages(source string, pages []loader.Page) []domain.Chunk {
	var out []domain.Chunk
	for _, p := range pages {
		for _, text := range s.Split(p.Text) {
			out = append(out, domain.Chunk{
				ID:     s.newID(),
				Text:   text,
				Source: source,
				Page:   p.Number,
			})
		}
	}
	return out
}
