package objstore

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func newTestFS(t *testing.T, files map[string]string) (*FS, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	for p, content := range files {
		if err := mem.MkdirAll("/"+p[:strings.LastIndex(p, "/")], 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := afero.WriteFile(mem, "/"+p, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	return NewFS(mem, "http://localhost:8080/files", []byte("secret")), mem
}

func paths(objects []Object) []string {
	var out []string
	for _, o := range objects {
		out = append(out, o.Path)
	}
	return out
}

func TestFS_List(t *testing.T) {
	store, _ := newTestFS(t, map[string]string{
		"docs/Fotos/pump.jpg":       "img",
		"docs/Preventivo/plan.pdf":  "pdf",
		"docs/Preventivo/notes.txt": "txt",
		"docs/report.pdf":           "pdf",
		"other/x.pdf":               "pdf",
	})
	ctx := context.Background()

	tests := []struct {
		prefix string
		want   []string
	}{
		{"docs/Preventivo/", []string{"docs/Preventivo/", "docs/Preventivo/notes.txt", "docs/Preventivo/plan.pdf"}},
		{"docs/rep", []string{"docs/report.pdf"}},
		{"missing/", nil},
		{"other/", []string{"other/", "other/x.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			objects, err := store.List(ctx, tt.prefix)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			got := paths(objects)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("List(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestFS_ListMarksContainers(t *testing.T) {
	store, _ := newTestFS(t, map[string]string{"docs/a/b.pdf": "x"})

	objects, err := store.List(context.Background(), "docs/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, o := range objects {
		if strings.HasSuffix(o.Path, "/") != o.IsContainer {
			t.Errorf("IsContainer mismatch for %q", o.Path)
		}
	}
}

func TestFS_UploadDownloadExists(t *testing.T) {
	store, _ := newTestFS(t, nil)
	ctx := context.Background()

	if ok, _ := store.Exists(ctx, "idx/manifest.json"); ok {
		t.Fatal("Expected object to be absent")
	}

	if err := store.Upload(ctx, "idx/manifest.json", []byte(`{}`), "application/json"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	ok, err := store.Exists(ctx, "idx/manifest.json")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	data, err := store.Download(ctx, "idx/manifest.json")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(data) != `{}` {
		t.Errorf("Download = %q", data)
	}

	if ok, _ := store.Exists(ctx, "idx/manifest.json.tmp"); ok {
		t.Error("Temporary file should be renamed away")
	}
}

func TestFS_DownloadMissing(t *testing.T) {
	store, _ := newTestFS(t, nil)

	_, err := store.Download(context.Background(), "nope.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFS_SignAndVerify(t *testing.T) {
	store, _ := newTestFS(t, map[string]string{"docs/plan 1.pdf": "x"})
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	signed, err := store.SignURL(context.Background(), "docs/plan 1.pdf", time.Hour)
	if err != nil {
		t.Fatalf("SignURL failed: %v", err)
	}
	if !strings.HasPrefix(signed, "http://localhost:8080/files/docs/plan%201.pdf?") {
		t.Errorf("Unexpected URL: %s", signed)
	}

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	q := u.Query()
	p := strings.TrimPrefix(u.Path, "/files/")

	if err := store.Verify(p, q.Get("expires"), q.Get("signature")); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
	if err := store.Verify("docs/other.pdf", q.Get("expires"), q.Get("signature")); !errors.Is(err, ErrBadSignature) {
		t.Errorf("Expected ErrBadSignature for another path, got %v", err)
	}

	now = now.Add(2 * time.Hour)
	if err := store.Verify(p, q.Get("expires"), q.Get("signature")); !errors.Is(err, ErrURLExpired) {
		t.Errorf("Expected ErrURLExpired, got %v", err)
	}
}

func TestFS_SignURLWithoutKey(t *testing.T) {
	store := NewFS(afero.NewMemMapFs(), "http://x", nil)
	if _, err := store.SignURL(context.Background(), "a.pdf", time.Minute); err == nil {
		t.Error("Expected error without signing key")
	}
}
