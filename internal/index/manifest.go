package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
	"github.com/sha1n/mcp-doc-agent/internal/objstore"
)

// Artifact names inside the index folder.
const (
	ManifestFilename = "manifest.json"
	VectorsFilename  = "index.vec"
	ChunksFilename   = "index.json"
)

// EncodeManifest serializes a corpus state as a JSON object of path to RFC 3339 timestamp.
func EncodeManifest(state domain.CorpusState) ([]byte, error) {
	out := make(map[string]string, len(state))
	for p, t := range state {
		out[p] = t.UTC().Format(time.RFC3339Nano)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return data, nil
}

// DecodeManifest parses a manifest written by EncodeManifest. Timestamps without
// fractional seconds are accepted.
func DecodeManifest(data []byte) (domain.CorpusState, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	state := make(domain.CorpusState, len(raw))
	for p, s := range raw {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp for %q: %w", p, err)
		}
		state[p] = t.UTC()
	}
	return state, nil
}

// loadManifest returns the persisted state. A missing manifest is a first run; an
// unreadable one is logged and treated the same way so the index gets rebuilt.
func (m *Manager) loadManifest(ctx context.Context) domain.CorpusState {
	data, err := m.download(ctx, m.artifactPath(ManifestFilename))
	if err != nil {
		if !errors.Is(err, objstore.ErrNotFound) {
			m.logger.Warn("Failed to read manifest, rebuilding index", "error", err)
		}
		return domain.CorpusState{}
	}

	state, err := DecodeManifest(data)
	if err != nil {
		m.logger.Warn("Corrupt manifest, rebuilding index", "error", err)
		return domain.CorpusState{}
	}
	return state
}

func (m *Manager) saveManifest(ctx context.Context, state domain.CorpusState) error {
	data, err := EncodeManifest(state)
	if err != nil {
		return err
	}
	return m.upload(ctx, m.artifactPath(ManifestFilename), data, "application/json")
}
