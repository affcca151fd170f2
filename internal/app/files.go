package app

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/sha1n/mcp-doc-agent/internal/objstore"
)

// FileHandler serves documents of the filesystem backend behind signed URLs.
func FileHandler(store *objstore.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimPrefix(r.URL.Path, "/files/")
		q := r.URL.Query()

		if err := store.Verify(p, q.Get("expires"), q.Get("signature")); err != nil {
			status := http.StatusForbidden
			msg := "Invalid signature"
			if errors.Is(err, objstore.ErrURLExpired) {
				msg = "Link expired"
			}
			http.Error(w, msg, status)
			return
		}

		f, err := store.Open(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			slog.Warn("Failed to open file", "path", p, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, path.Base(p), info.ModTime(), f)
	}
}
