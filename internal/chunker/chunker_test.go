package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sha1n/mcp-doc-agent/internal/loader"
)

func TestNew_Defaults(t *testing.T) {
	s := New()
	if s.size != DefaultChunkSize || s.overlap != DefaultChunkOverlap {
		t.Errorf("Unexpected defaults: %d/%d", s.size, s.overlap)
	}
}

func TestNew_OverlapNotSmallerThanSize(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(100))
	if s.overlap >= s.size {
		t.Errorf("Overlap %d should be reset below size %d", s.overlap, s.size)
	}
}

func TestSplit_Empty(t *testing.T) {
	if chunks := New().Split("   \n\t "); chunks != nil {
		t.Errorf("Expected nil, got %v", chunks)
	}
}

func TestSplit_ShortText(t *testing.T) {
	chunks := New().Split("short document")
	if len(chunks) != 1 || chunks[0] != "short document" {
		t.Errorf("Unexpected chunks: %v", chunks)
	}
}

func TestSplit_RespectsSize(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 200)
	s := New(WithChunkSize(100), WithOverlap(10))

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("Expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 100 {
			t.Errorf("Chunk %d has %d runes", i, n)
		}
	}
}

func TestSplit_CountApproximatesLengthOverStride(t *testing.T) {
	text := strings.Repeat("abcdefghij ", 1000) // 11000 runes
	s := New(WithChunkSize(1000), WithOverlap(100))

	chunks := s.Split(text)
	stride := 1000 - 100
	expected := len(strings.TrimSpace(text)) / stride
	if len(chunks) < expected || len(chunks) > expected+3 {
		t.Errorf("Got %d chunks, expected about %d", len(chunks), expected)
	}
}

func TestSplit_Overlap(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := New(WithChunkSize(100), WithOverlap(20)).Split(text)

	// No whitespace: hard cuts every 80 runes.
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if utf8.RuneCountInString(chunks[2]) != 90 {
		t.Errorf("Last chunk has %d runes, want 90", utf8.RuneCountInString(chunks[2]))
	}
}

func TestSplit_MultiByte(t *testing.T) {
	text := strings.Repeat("ñandú ", 100)
	for _, c := range New(WithChunkSize(50), WithOverlap(5)).Split(text) {
		if !utf8.ValidString(c) {
			t.Fatalf("Chunk is not valid UTF-8: %q", c)
		}
	}
}

func TestSplitPages(t *testing.T) {
	s := New(WithChunkSize(50), WithOverlap(5))
	pages := []loader.Page{
		{Number: 1, Text: "first page"},
		{Number: 3, Text: strings.Repeat("word ", 30)},
	}

	chunks := s.SplitPages("root/manual.pdf", pages)
	if len(chunks) < 3 {
		t.Fatalf("Expected at least 3 chunks, got %d", len(chunks))
	}

	ids := map[string]bool{}
	for _, c := range chunks {
		if c.Source != "root/manual.pdf" {
			t.Errorf("Source = %q", c.Source)
		}
		if c.ID == "" || ids[c.ID] {
			t.Errorf("Chunk ID %q missing or duplicated", c.ID)
		}
		ids[c.ID] = true
	}
	if chunks[0].Page != 1 || chunks[len(chunks)-1].Page != 3 {
		t.Errorf("Page numbers not carried: first=%d last=%d", chunks[0].Page, chunks[len(chunks)-1].Page)
	}
}
