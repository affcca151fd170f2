package index

import (
	"math"
	"strings"
	"testing"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
)

var testFingerprint = strings.Repeat("ab", 32)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	chunks := []domain.Chunk{
		{ID: "1", Text: "pumps", Source: "a.pdf", Page: 1},
		{ID: "2", Text: "valves", Source: "b.pdf", Page: 2},
		{ID: "3", Text: "pipes", Source: "c.pdf", Page: 3},
	}
	vectors := [][]float32{{1, 0, 0}, {0, 2, 0}, {1, 1, 0}}
	s, err := NewSnapshot(chunks, vectors, testFingerprint, "test-model")
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	return s
}

func TestNewSnapshot_Validation(t *testing.T) {
	chunks := []domain.Chunk{{ID: "1"}, {ID: "2"}}

	tests := []struct {
		name        string
		vectors     [][]float32
		fingerprint string
	}{
		{"count mismatch", [][]float32{{1}}, testFingerprint},
		{"dimension mismatch", [][]float32{{1, 0}, {1}}, testFingerprint},
		{"empty vector", [][]float32{{}, {}}, testFingerprint},
		{"bad fingerprint", [][]float32{{1}, {1}}, "short"},
	}
	for _, tt := range tests {
		if _, err := NewSnapshot(chunks, tt.vectors, tt.fingerprint, "m"); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestNewSnapshot_NormalizesVectors(t *testing.T) {
	s := testSnapshot(t)
	for i, v := range s.Vectors {
		if n := Norm(v); math.Abs(n-1) > 1e-6 {
			t.Errorf("Vector %d has norm %v", i, n)
		}
	}
}

func TestSnapshot_Search(t *testing.T) {
	s := testSnapshot(t)

	hits := s.Search([]float32{0, 5, 0}, 2)
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
	if hits[0].Chunk.ID != "2" || hits[1].Chunk.ID != "3" {
		t.Errorf("Unexpected order: %s, %s", hits[0].Chunk.ID, hits[1].Chunk.ID)
	}
	if math.Abs(hits[0].Score-1) > 1e-6 {
		t.Errorf("Top score = %v, want 1", hits[0].Score)
	}

	if got := s.Search([]float32{1, 0, 0}, 10); len(got) != 3 {
		t.Errorf("k larger than index should return all, got %d", len(got))
	}
}

func TestSnapshot_SearchDegenerateQueries(t *testing.T) {
	s := testSnapshot(t)

	if hits := s.Search([]float32{0, 0, 0}, 5); hits != nil {
		t.Error("Zero vector should yield no hits")
	}
	if hits := s.Search([]float32{1, 0}, 5); hits != nil {
		t.Error("Wrong dimension should yield no hits")
	}
	if hits := s.Search([]float32{1, 0, 0}, 0); hits != nil {
		t.Error("k=0 should yield no hits")
	}
}

func TestSnapshot_EncodeDecode(t *testing.T) {
	s := testSnapshot(t)

	vec, meta, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := DecodeSnapshot(vec, meta)
	if err != nil {
		t.Fatalf("DecodeSnapshot failed: %v", err)
	}
	if decoded.Fingerprint != s.Fingerprint || decoded.Model != "test-model" || decoded.Dimensions != 3 {
		t.Errorf("Header mismatch: %+v", decoded)
	}
	if decoded.Len() != 3 || decoded.Chunks[2].Source != "c.pdf" || decoded.Chunks[2].Page != 3 {
		t.Errorf("Chunks mismatch: %+v", decoded.Chunks)
	}
	for i := range s.Vectors {
		for j := range s.Vectors[i] {
			if decoded.Vectors[i][j] != s.Vectors[i][j] {
				t.Fatalf("Vector %d differs", i)
			}
		}
	}
}

func TestDecodeSnapshot_DetectsTornPair(t *testing.T) {
	a := testSnapshot(t)
	b, err := NewSnapshot(a.Chunks, a.Vectors, strings.Repeat("cd", 32), "test-model")
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}

	vecA, _, _ := a.Encode()
	_, metaB, _ := b.Encode()

	if _, err := DecodeSnapshot(vecA, metaB); err == nil {
		t.Error("Expected error for artifacts of different builds")
	}
}

func TestDecodeSnapshot_Corrupt(t *testing.T) {
	s := testSnapshot(t)
	vec, meta, _ := s.Encode()

	tests := []struct {
		name      string
		vec, meta []byte
	}{
		{"bad magic", append([]byte("XXXX"), vec[4:]...), meta},
		{"truncated vectors", vec[:len(vec)-4], meta},
		{"short header", vec[:6], meta},
		{"bad meta", vec, []byte("{")},
		{"wrong version", vec, []byte(`{"version":9}`)},
	}
	for _, tt := range tests {
		if _, err := DecodeSnapshot(tt.vec, tt.meta); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
