package domain

import (
	"path"
	"slices"
	"strings"
	"time"
)

// ImageExtensions are rendered inline by callers instead of as links.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// DocumentRecord is a located document with a freshly issued access URL.
// Records are never persisted; every lookup signs a new URL.
type DocumentRecord struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	URL     string    `json:"url"`
	Expires time.Time `json:"expires"`
}

// NewDocumentRecord derives the display name from the storage path.
func NewDocumentRecord(p, url string, expires time.Time) DocumentRecord {
	return DocumentRecord{
		Name:    path.Base(p),
		Path:    p,
		URL:     url,
		Expires: expires,
	}
}

// IsImage reports whether the record points at an image file.
func (r DocumentRecord) IsImage() bool {
	return slices.Contains(ImageExtensions, strings.ToLower(path.Ext(r.Path)))
}
