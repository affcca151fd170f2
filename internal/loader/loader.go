// Package loader extracts page text from corpus documents.
package loader

import (
	"errors"
	"path"
	"sort"
	"strings"
)

// ErrUnsupported is returned for documents without a registered loader.
var ErrUnsupported = errors.New("unsupported document type")

// Page is the text of one page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Loader turns raw document bytes into pages.
type Loader interface {
	Load(data []byte) ([]Page, error)
}

// Registry maps file extensions to loaders.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry returns a registry with the built-in PDF and plain text loaders.
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]Loader)}
	r.Register(".pdf", NewPDFLoader())
	r.Register(".txt", TextLoader{})
	r.Register(".md", TextLoader{})
	return r
}

// Register binds ext (with or without the leading dot) to l.
func (r *Registry) Register(ext string, l Loader) {
	r.loaders[normalizeExt(ext)] = l
}

// ForPath returns the loader for the extension of p.
func (r *Registry) ForPath(p string) (Loader, bool) {
	l, ok := r.loaders[normalizeExt(path.Ext(p))]
	return l, ok
}

// Load picks the loader by extension and runs it.
func (r *Registry) Load(p string, data []byte) ([]Page, error) {
	l, ok := r.ForPath(p)
	if !ok {
		return nil, ErrUnsupported
	}
	return l.Load(data)
}

// Extensions lists the registered extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
