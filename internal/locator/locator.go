// Package locator finds documents in object storage and issues signed access URLs.
package locator

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sha1n/mcp-doc-agent/internal/domain"
	"github.com/sha1n/mcp-doc-agent/internal/objstore"
)

const (
	DefaultURLTTL  = time.Hour
	DefaultTimeout = 30 * time.Second
)

// ExtensionTokens are folder names treated as an extension filter by ListByFolder.
var ExtensionTokens = []string{"pdf", "jpg", "jpeg", "png", "gif", "docx", "xlsx", "pptx", "txt"}

// IsExtensionToken reports whether s names a recognized file extension.
func IsExtensionToken(s string) bool {
	return slices.Contains(ExtensionTokens, strings.ToLower(strings.TrimSpace(s)))
}

// Config configures a Locator.
type Config struct {
	// Roots are the category folders searched, in order.
	Roots []string
	// URLTTL is the lifetime of every signed URL.
	URLTTL time.Duration
	// Timeout bounds each storage call.
	Timeout time.Duration
}

// Locator resolves keyword and category lookups into signed document records.
type Locator struct {
	store  objstore.Store
	roots  []string
	ttl    time.Duration
	tmo    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Locator. Roots are normalized to end with a slash.
func New(store objstore.Store, cfg Config, logger *slog.Logger) *Locator {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = DefaultURLTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		r = strings.Trim(strings.TrimSpace(r), "/")
		if r == "" {
			continue
		}
		roots = append(roots, r+"/")
	}

	return &Locator{
		store:  store,
		roots:  roots,
		ttl:    cfg.URLTTL,
		tmo:    cfg.Timeout,
		now:    time.Now,
		logger: logger,
	}
}

// FindByKeywords returns every non-container object, across all roots, whose path
// contains each whitespace-separated term case-insensitively.
func (l *Locator) FindByKeywords(ctx context.Context, keywords string) ([]domain.DocumentRecord, error) {
	terms := strings.Fields(strings.ToLower(keywords))
	if len(terms) == 0 {
		return nil, domain.ErrMissingParameter
	}

	var matches []string
	for _, root := range l.roots {
		objects, err := l.list(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, o := range objects {
			if o.IsContainer {
				continue
			}
			if matchesAll(strings.ToLower(o.Path), terms) {
				matches = append(matches, o.Path)
			}
		}
	}

	l.logger.Debug("Keyword lookup", "terms", terms, "matches", len(matches))
	return l.sign(ctx, matches)
}

// ListByFolder lists a category. A recognized extension token ("pdf") filters by
// extension across all roots; any other value is a subfolder of each root.
func (l *Locator) ListByFolder(ctx context.Context, folder string) ([]domain.DocumentRecord, error) {
	folder = strings.ToLower(strings.TrimSpace(folder))
	if folder == "" {
		return nil, domain.ErrMissingParameter
	}

	var matches []string
	if IsExtensionToken(folder) {
		suffix := "." + folder
		for _, root := range l.roots {
			objects, err := l.list(ctx, root)
			if err != nil {
				return nil, err
			}
			for _, o := range objects {
				if !o.IsContainer && strings.HasSuffix(strings.ToLower(o.Path), suffix) {
					matches = append(matches, o.Path)
				}
			}
		}
	} else {
		sub := strings.Trim(folder, "/")
		for _, root := range l.roots {
			objects, err := l.list(ctx, root+sub+"/")
			if err != nil {
				return nil, err
			}
			for _, o := range objects {
				if !o.IsContainer {
					matches = append(matches, o.Path)
				}
			}
		}
	}

	l.logger.Debug("Folder lookup", "folder", folder, "matches", len(matches))
	return l.sign(ctx, matches)
}

func (l *Locator) list(ctx context.Context, prefix string) ([]objstore.Object, error) {
	ctx, cancel := context.WithTimeout(ctx, l.tmo)
	defer cancel()

	objects, err := l.store.List(ctx, prefix)
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Path: prefix, Err: err}
	}
	return objects, nil
}

// sign deduplicates paths, keeping first-seen order, and issues one URL per path.
func (l *Locator) sign(ctx context.Context, paths []string) ([]domain.DocumentRecord, error) {
	seen := make(map[string]struct{}, len(paths))
	records := make([]domain.DocumentRecord, 0, len(paths))

	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}

		issued := l.now()
		sctx, cancel := context.WithTimeout(ctx, l.tmo)
		u, err := l.store.SignURL(sctx, p, l.ttl)
		cancel()
		if err != nil {
			return nil, &domain.StorageError{Op: "sign", Path: p, Err: err}
		}
		records = append(records, domain.NewDocumentRecord(p, u, issued.Add(l.ttl)))
	}
	return records, nil
}

func matchesAll(s string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}
