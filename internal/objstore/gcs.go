package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSConfig configures the Google Cloud Storage backend.
type GCSConfig struct {
	Bucket string
	// CredentialsFile is a service account key; empty uses application default credentials.
	CredentialsFile string
	// SignerEmail is the service account used for V4 signing when the credentials
	// carry no private key (IAM signBlob is used instead).
	SignerEmail string
}

// GCS is a Store backed by a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	cfg    GCSConfig
}

var _ Store = (*GCS)(nil)

// NewGCS opens a storage client for the configured bucket.
func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCS{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		cfg:    cfg,
	}, nil
}

func (g *GCS) List(ctx context.Context, prefix string) ([]Object, error) {
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	var objects []Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", g.cfg.Bucket, prefix, err)
		}
		objects = append(objects, Object{
			Path:         attrs.Name,
			LastModified: attrs.Updated.UTC(),
			Size:         attrs.Size,
			IsContainer:  strings.HasSuffix(attrs.Name, "/"),
		})
	}
	return objects, nil
}

func (g *GCS) Download(ctx context.Context, path string) ([]byte, error) {
	r, err := g.bucket.Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", g.cfg.Bucket, path, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", g.cfg.Bucket, path, err)
	}
	return data, nil
}

func (g *GCS) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	w := g.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", g.cfg.Bucket, path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", g.cfg.Bucket, path, err)
	}
	return nil
}

func (g *GCS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := g.bucket.Object(path).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat gs://%s/%s: %w", g.cfg.Bucket, path, err)
	}
	return true, nil
}

// SignURL issues a V4 signed GET URL.
func (g *GCS) SignURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	}
	if g.cfg.SignerEmail != "" {
		opts.GoogleAccessID = g.cfg.SignerEmail
	}

	u, err := g.bucket.SignedURL(path, opts)
	if err != nil {
		return "", fmt.Errorf("failed to sign gs://%s/%s: %w", g.cfg.Bucket, path, err)
	}
	return u, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
