package index

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
)

const (
	snapshotVersion = 1
	vectorMagic     = "DAVX"
	fingerprintSize = 64
)

// Snapshot is an in-memory semantic index: chunk metadata plus one unit-length
// vector per chunk.
type Snapshot struct {
	Fingerprint string
	Model       string
	Dimensions  int
	BuiltAt     time.Time
	Chunks      []domain.Chunk
	Vectors     [][]float32
}

// Hit is a retrieved chunk with its similarity score.
type Hit struct {
	Index int
	Chunk domain.Chunk
	Score float64
}

type snapshotMeta struct {
	Version     int            `json:"version"`
	Fingerprint string         `json:"fingerprint"`
	Model       string         `json:"model"`
	Dimensions  int            `json:"dimensions"`
	BuiltAt     time.Time      `json:"built_at"`
	Chunks      []domain.Chunk `json:"chunks"`
}

// NewSnapshot validates shapes and normalizes the vectors.
func NewSnapshot(chunks []domain.Chunk, vectors [][]float32, fingerprint, model string) (*Snapshot, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if len(fingerprint) != fingerprintSize {
		return nil, fmt.Errorf("invalid fingerprint %q", fingerprint)
	}

	dims := 0
	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if i == 0 {
			dims = len(v)
		}
		if len(v) == 0 || len(v) != dims {
			return nil, fmt.Errorf("vector %d has %d dimensions, expected %d", i, len(v), dims)
		}
		normalized[i] = Normalize(v)
	}

	return &Snapshot{
		Fingerprint: fingerprint,
		Model:       model,
		Dimensions:  dims,
		BuiltAt:     time.Now().UTC(),
		Chunks:      chunks,
		Vectors:     normalized,
	}, nil
}

// Len returns the number of chunks.
func (s *Snapshot) Len() int { return len(s.Chunks) }

// Search returns the k chunks most similar to query by cosine similarity.
// A query of the wrong dimension or zero norm yields no hits.
func (s *Snapshot) Search(query []float32, k int) []Hit {
	if k <= 0 || len(query) != s.Dimensions || Norm(query) == 0 {
		return nil
	}
	q := Normalize(query)

	hits := make([]Hit, len(s.Vectors))
	for i, v := range s.Vectors {
		hits[i] = Hit{Index: i, Chunk: s.Chunks[i], Score: dot(q, v)}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Encode writes the vector artifact (binary, little endian) and the chunk artifact (JSON).
// Both carry the fingerprint so a torn pair can be detected on load.
func (s *Snapshot) Encode() (vectors []byte, chunks []byte, err error) {
	var fp [fingerprintSize]byte
	copy(fp[:], s.Fingerprint)

	var buf bytes.Buffer
	buf.WriteString(vectorMagic)
	header := []any{
		uint16(snapshotVersion),
		fp,
		uint32(s.Dimensions),
		uint32(len(s.Vectors)),
	}
	for _, h := range header {
		if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
			return nil, nil, fmt.Errorf("encode vector header: %w", err)
		}
	}
	for _, v := range s.Vectors {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, nil, fmt.Errorf("encode vectors: %w", err)
		}
	}

	meta := snapshotMeta{
		Version:     snapshotVersion,
		Fingerprint: s.Fingerprint,
		Model:       s.Model,
		Dimensions:  s.Dimensions,
		BuiltAt:     s.BuiltAt,
		Chunks:      s.Chunks,
	}
	chunks, err = json.Marshal(meta)
	if err != nil {
		return nil, nil, fmt.Errorf("encode chunks: %w", err)
	}
	return buf.Bytes(), chunks, nil
}

// DecodeSnapshot reverses Encode and checks both artifacts belong together.
func DecodeSnapshot(vectors, chunks []byte) (*Snapshot, error) {
	var meta snapshotMeta
	if err := json.Unmarshal(chunks, &meta); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}
	if meta.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported index version %d", meta.Version)
	}

	r := bytes.NewReader(vectors)
	magic := make([]byte, len(vectorMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != vectorMagic {
		return nil, errors.New("vector artifact has no valid header")
	}

	var (
		version     uint16
		fingerprint [fingerprintSize]byte
		dims, count uint32
	)
	for _, f := range []any{&version, &fingerprint, &dims, &count} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("decode vector header: %w", err)
		}
	}

	switch {
	case version != snapshotVersion:
		return nil, fmt.Errorf("unsupported vector version %d", version)
	case string(fingerprint[:]) != meta.Fingerprint:
		return nil, errors.New("vector and chunk artifacts come from different builds")
	case int(count) != len(meta.Chunks):
		return nil, fmt.Errorf("vector count %d does not match chunk count %d", count, len(meta.Chunks))
	case int(dims) != meta.Dimensions:
		return nil, fmt.Errorf("vector dimensions %d do not match metadata %d", dims, meta.Dimensions)
	}

	if want := int64(count) * int64(dims) * 4; int64(r.Len()) != want {
		return nil, fmt.Errorf("vector payload is %d bytes, expected %d", r.Len(), want)
	}

	vecs := make([][]float32, count)
	for i := range vecs {
		vecs[i] = make([]float32, dims)
		if err := binary.Read(r, binary.LittleEndian, vecs[i]); err != nil {
			return nil, fmt.Errorf("decode vector %d: %w", i, err)
		}
	}

	return &Snapshot{
		Fingerprint: meta.Fingerprint,
		Model:       meta.Model,
		Dimensions:  int(dims),
		BuiltAt:     meta.BuiltAt,
		Chunks:      meta.Chunks,
		Vectors:     vecs,
	}, nil
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v. Zero vectors are returned as zeros.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	n := Norm(v)
	if n == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
