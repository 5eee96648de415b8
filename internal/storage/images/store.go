// Package images downloads product photos and hands them to a blob store.
package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	collyfetcher "github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/fetcher/colly"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/hash/sha256"
)

// BlobStore is where downloaded image bytes end up. Implemented by the
// local filesystem and GCS stores.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Getter fetches image bytes over HTTP.
type Getter interface {
	Get(ctx context.Context, url string) (collyfetcher.Response, error)
}

var contentTypeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/avif": ".avif",
}

// Store downloads product images into per-product directories. The
// directory key is derived from the product's source URL, so re-running a
// harvest writes into the same location.
type Store struct {
	getter Getter
	blobs  BlobStore
	hasher *sha256.Hasher
	logger *zap.Logger
}

// New constructs an image store.
func New(getter Getter, blobs BlobStore, logger *zap.Logger) (*Store, error) {
	if getter == nil {
		return nil, fmt.Errorf("image getter is required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		getter: getter,
		blobs:  blobs,
		hasher: sha256.New(),
		logger: logger,
	}, nil
}

// DirKey returns the stable directory key for a product source URL.
func (s *Store) DirKey(sourceURL string) string {
	return s.hasher.DirKey(sourceURL)
}

// Download fetches each image URL and stores the bytes under the product's
// directory key. Individual image failures are logged and skipped; the
// returned count is the number of images actually stored.
func (s *Store) Download(ctx context.Context, sourceURL string, imageURLs []string) (string, int) {
	dir := s.DirKey(sourceURL)
	stored := 0
	for i, imageURL := range imageURLs {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := s.downloadOne(ctx, dir, i+1, imageURL); err != nil {
			s.logger.Warn("image download failed",
				zap.String("image_url", imageURL),
				zap.String("source_url", sourceURL),
				zap.Error(err),
			)
			continue
		}
		stored++
	}
	return dir, stored
}

func (s *Store) downloadOne(ctx context.Context, dir string, seq int, imageURL string) error {
	resp, err := s.getter.Get(ctx, imageURL)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	if len(resp.Body) == 0 {
		return fmt.Errorf("fetch image: empty body")
	}
	contentType := baseContentType(resp.ContentType)
	ext, ok := contentTypeExtensions[contentType]
	if !ok {
		ext = extensionFromURL(imageURL)
		if ext == "" {
			return fmt.Errorf("unsupported content type %q", contentType)
		}
	}
	objectPath := fmt.Sprintf("%s/%02d%s", dir, seq, ext)
	if _, err := s.blobs.PutObject(ctx, objectPath, contentType, bytes.NewReader(resp.Body)); err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	return nil
}

func baseContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// extensionFromURL salvages an extension from the URL path when the server
// does not send a usable Content-Type.
func extensionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(u.Path))
	switch ext {
	case ".jpg", ".jpeg":
		return ".jpg"
	case ".png", ".webp", ".gif", ".avif":
		return ext
	}
	return ""
}
