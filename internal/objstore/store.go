// Package objstore abstracts the object storage holding the document corpus
// and the persisted index artifacts.
package objstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// Object is a listing entry. Paths are slash separated and relative to the store root.
type Object struct {
	Path         string
	LastModified time.Time
	Size         int64
	// IsContainer marks virtual folder markers ("dir/").
	IsContainer bool
}

// Store is the storage collaborator used by the locator and the index manager.
type Store interface {
	// List returns every object whose path starts with prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]Object, error)
	Download(ctx context.Context, path string) ([]byte, error)
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	// SignURL issues a time-limited URL granting read access to path.
	SignURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, path string) (bool, error)
}
