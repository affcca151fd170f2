package index

import (
	"path"
	"slices"
	"strings"

	"github.com/sha1n/mcp-doc-agent/internal/objstore"
)

// DefaultExtensions are the document types indexed when none are configured.
var DefaultExtensions = []string{".pdf"}

// CorpusFilter decides which stored objects belong to the indexable corpus.
type CorpusFilter struct {
	root       string
	excludes   []string
	extensions []string
}

// NewCorpusFilter builds a filter for objects under root. Objects under any of the
// exclude prefixes are left out, as are objects whose extension is not listed.
func NewCorpusFilter(root string, excludes, extensions []string) *CorpusFilter {
	f := &CorpusFilter{root: normalizePrefix(root)}
	for _, e := range excludes {
		if e = normalizePrefix(e); e != "" {
			f.excludes = append(f.excludes, e)
		}
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions = append(f.extensions, ext)
	}
	return f
}

// Root returns the listing prefix of the corpus.
func (f *CorpusFilter) Root() string { return f.root }

// Include reports whether o is an indexable document.
func (f *CorpusFilter) Include(o objstore.Object) bool {
	if o.IsContainer || !strings.HasPrefix(o.Path, f.root) {
		return false
	}
	for _, e := range f.excludes {
		if strings.HasPrefix(o.Path, e) {
			return false
		}
	}
	return slices.Contains(f.extensions, strings.ToLower(path.Ext(o.Path)))
}

// normalizePrefix trims slashes and appends exactly one; the empty prefix stays empty.
func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}
