package objstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

var (
	// ErrURLExpired is returned when a signed URL is past its expiry.
	ErrURLExpired = errors.New("signed url expired")

	// ErrBadSignature is returned when a signed URL does not verify.
	ErrBadSignature = errors.New("invalid url signature")
)

// FS is a Store over an afero filesystem. Signed URLs point at baseURL and carry an
// HMAC-SHA256 signature over the path and expiry, verified by the HTTP file handler.
type FS struct {
	fs      afero.Fs
	baseURL string
	key     []byte
	now     func() time.Time
}

var _ Store = (*FS)(nil)

// NewFS creates a store rooted at the top of fsys.
func NewFS(fsys afero.Fs, baseURL string, signingKey []byte) *FS {
	return &FS{
		fs:      fsys,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		key:     signingKey,
		now:     time.Now,
	}
}

// NewOsFS creates a store confined to the root directory on the local disk.
func NewOsFS(root, baseURL string, signingKey []byte) *FS {
	return NewFS(afero.NewBasePathFs(afero.NewOsFs(), root), baseURL, signingKey)
}

func cleanPath(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// List walks the smallest directory containing prefix. Directories are reported as
// container entries with a trailing slash, like folder markers in a bucket.
func (s *FS) List(ctx context.Context, prefix string) ([]Object, error) {
	start := "/"
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		start = "/" + prefix[:i]
	}

	if ok, err := afero.DirExists(s.fs, start); err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", start, err)
	} else if !ok {
		return nil, nil
	}

	var objects []Object
	err := afero.Walk(s.fs, start, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel := strings.TrimPrefix(p, "/")
		if rel == "" {
			return nil
		}
		if info.IsDir() {
			rel += "/"
		}
		if !strings.HasPrefix(rel, prefix) {
			if info.IsDir() && !strings.HasPrefix(prefix, rel) {
				return fs.SkipDir
			}
			return nil
		}

		objects = append(objects, Object{
			Path:         rel,
			LastModified: info.ModTime().UTC(),
			Size:         info.Size(),
			IsContainer:  info.IsDir(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}
	return objects, nil
}

func (s *FS) Download(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, "/"+cleanPath(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

// Upload writes through a temporary file and renames it into place.
func (s *FS) Upload(ctx context.Context, p string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := "/" + cleanPath(p)
	if err := s.fs.MkdirAll(path.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}

	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

func (s *FS) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return afero.Exists(s.fs, "/"+cleanPath(p))
}

// SignURL returns <baseURL>/<path>?expires=<unix>&signature=<hex>.
func (s *FS) SignURL(ctx context.Context, p string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.key) == 0 {
		return "", errors.New("no signing key configured")
	}

	clean := cleanPath(p)
	expires := s.now().Add(ttl).Unix()

	u := s.baseURL + "/" + (&url.URL{Path: clean}).EscapedPath()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", s.signature(clean, expires))
	return u + "?" + q.Encode(), nil
}

// Verify checks a signature produced by SignURL.
func (s *FS) Verify(p, expires, signature string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	if s.now().Unix() > exp {
		return ErrURLExpired
	}
	want := s.signature(cleanPath(p), exp)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// Open returns a read handle for the HTTP file handler.
func (s *FS) Open(p string) (afero.File, error) {
	return s.fs.Open("/" + cleanPath(p))
}

func (s *FS) signature(p string, expires int64) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(p))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
