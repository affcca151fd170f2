package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sha1n/mcp-doc-agent/internal/config"
	"github.com/sha1n/mcp-doc-agent/internal/llm"
	"github.com/sha1n/mcp-doc-agent/internal/objstore"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

const pumpManual = "docs/manuals/pump manual.txt"

// fakeModel answers every generation with reply and embeds every text on one axis.
type fakeModel struct {
	reply string
}

func (m *fakeModel) Generate(_ context.Context, _ string, _ llm.GenerateOptions) (string, error) {
	return m.reply, nil
}

func (m *fakeModel) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (m *fakeModel) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (m *fakeModel) ModelName() string { return "fake" }

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	return &config.Settings{
		Transport: config.TransportStdio,
		Host:      "127.0.0.1",
		Port:      0,
		Auth:      config.AuthSettings{Type: config.AuthTypeNone},
		Storage: config.StorageSettings{
			Backend:    config.StorageFS,
			FSBaseURL:  "http://files.test/files",
			SigningKey: "test-key",
			URLTTL:     time.Hour,
		},
		Corpus: config.CorpusSettings{
			Root:          "docs/",
			ExcludePrefix: []string{"docs/images/"},
			IndexFolder:   "docs/.index/",
			Extensions:    []string{".txt"},
			SearchRoots:   []string{"docs/"},
		},
		Models: config.ModelSettings{RoutingTemperature: 0.1, AnswerTemperature: 0.1},
		Index: config.IndexSettings{
			ChunkSize:      200,
			ChunkOverlap:   20,
			EmbedBatchSize: 8,
			LockFile:       filepath.Join(t.TempDir(), "sync.lock"),
		},
		Answer:   config.AnswerSettings{TopK: 3},
		Timeouts: config.TimeoutSettings{Model: time.Second, Storage: time.Second, Sync: time.Minute},
	}
}

func testStore(t *testing.T) *objstore.FS {
	t.Helper()
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		pumpManual:                 "Replace the pump gasket every six months.",
		"docs/manuals/valve.txt":   "Valves are inspected yearly.",
		"docs/images/pump.png":     "png",
		"docs/corrective/leak.txt": "Tighten the flange to stop leaks.",
	}
	for p, content := range files {
		if err := fsys.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := afero.WriteFile(fsys, p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return objstore.NewFS(fsys, "http://files.test/files", []byte("test-key"))
}

func noopValidate(*config.Settings) error {
	return nil
}

// testParams wires the application over an in-memory store and a fake model.
func testParams(t *testing.T, reply string) (RunParams, *objstore.FS) {
	t.Helper()
	settings := testSettings(t)
	store := testStore(t)
	model := &fakeModel{reply: reply}

	return RunParams{
		LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
			return settings, nil
		},
		ValidSettings: noopValidate,
		BuildComponents: func(_ context.Context, s *config.Settings) (*Components, error) {
			return Assemble(s, store, model, model, slog.New(slog.NewTextHandler(io.Discard, nil)))
		},
		LogOutput: io.Discard,
	}, store
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
