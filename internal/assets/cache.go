// Package assets fetches sourced visual assets into a local
// content-addressed cache shared by all workers. Objects are written once
// and named by the blake3 hash of their bytes; a URI index avoids
// re-downloading, and a file lock serializes writers across processes.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"shortreel/internal/media"
	"shortreel/internal/services"
)

const defaultFetchTimeout = 60 * time.Second

// Cache is a shared, write-once asset store rooted at one directory.
type Cache struct {
	root       string
	httpClient *http.Client
}

// Option customizes the cache.
type Option func(*Cache)

// WithHTTPClient overrides the default HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewCache opens (creating if needed) a cache rooted at dir.
func NewCache(dir string, opts ...Option) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "assets", "open", "cache directory required", nil)
	}
	for _, sub := range []string{"objects", "index", "locks", "tmp"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "assets", "open", "create cache directory", err)
		}
	}
	cache := &Cache{
		root:       dir,
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache, nil
}

// Fetch resolves an asset URI to a local file path, downloading remote
// assets into the cache on first use. Local paths are returned as-is.
// Failures carry the ErrAssetUnavailable marker; callers substitute the
// placeholder rather than aborting the item.
func (c *Cache) Fetch(ctx context.Context, uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", services.Wrap(services.ErrAssetUnavailable, "assets", "fetch", "empty uri", nil)
	}
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme == "" || parsed.Scheme == "file" {
		path := uri
		if parsed != nil && parsed.Scheme == "file" {
			path = parsed.Path
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return "", services.Wrap(services.ErrAssetUnavailable, "assets", "fetch", uri, statErr)
		}
		return path, nil
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", services.Wrap(services.ErrAssetUnavailable, "assets", "fetch",
			fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}

	key := hashKey(uri)

	// Fast path: another worker already fetched this URI.
	if path, ok := c.lookup(key); ok {
		return path, nil
	}

	lock := flock.New(filepath.Join(c.root, "locks", key+".lock"))
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return "", services.Wrap(services.ErrAssetUnavailable, "assets", "fetch", "acquire lock", err)
	}
	if !locked {
		return "", services.Wrap(services.ErrAssetUnavailable, "assets", "fetch", "lock unavailable", nil)
	}
	defer func() { _ = lock.Unlock() }()

	// Re-check under the lock; the race loser reuses the winner's object.
	if path, ok := c.lookup(key); ok {
		return path, nil
	}

	return c.download(ctx, uri, key)
}

func (c *Cache) download(ctx context.Context, uri, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", services.Wrap(services.ErrAssetUnavailable, "assets", "download", uri, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrAssetUnavailable, "assets", "download", uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrAssetUnavailable, "assets", "download",
			fmt.Sprintf("%s: http %d", uri, resp.StatusCode), nil)
	}

	tmpPath := filepath.Join(c.root, "tmp", uuid.NewString())
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return "", services.Wrap(services.ErrAssetUnavailable, "assets", "download", "create temp file", err)
	}
	hasher := blake3.New(32, nil)
	_, copyErr := io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrAssetUnavailable, "assets", "download", uri, errors.Join(copyErr, closeErr))
	}

	object := fmt.Sprintf("%x%s", hasher.Sum(nil), objectExt(uri))
	objectPath := filepath.Join(c.root, "objects", object)
	if _, err := os.Stat(objectPath); err != nil {
		// First writer wins; identical content from another URI reuses it.
		if err := os.Rename(tmpPath, objectPath); err != nil {
			_ = os.Remove(tmpPath)
			return "", services.Wrap(services.ErrAssetUnavailable, "assets", "store", uri, err)
		}
	} else {
		_ = os.Remove(tmpPath)
	}

	if err := os.WriteFile(c.indexPath(key), []byte(object), 0o644); err != nil {
		return "", services.Wrap(services.ErrAssetUnavailable, "assets", "store", "write index", err)
	}
	return objectPath, nil
}

// Localize resolves every asset to a local path, substituting the
// placeholder for anything unavailable. Returns the localized assets and
// the number of substitutions. Errors other than availability propagate.
func (c *Cache) Localize(ctx context.Context, list []media.VisualAsset, placeholder media.VisualAsset) ([]media.VisualAsset, int, error) {
	out := make([]media.VisualAsset, 0, len(list))
	substituted := 0
	for _, asset := range list {
		path, err := c.Fetch(ctx, asset.AssetURI())
		if err != nil {
			if !errors.Is(err, services.ErrAssetUnavailable) {
				return nil, substituted, err
			}
			if placeholder != nil {
				out = append(out, placeholder)
				substituted++
			}
			continue
		}
		out = append(out, withURI(asset, path))
	}
	return out, substituted, nil
}

func withURI(asset media.VisualAsset, path string) media.VisualAsset {
	switch a := asset.(type) {
	case media.StillImage:
		a.URI = path
		return a
	case media.AvatarClip:
		a.URI = path
		return a
	case media.PlaceholderAsset:
		a.URI = path
		return a
	default:
		return asset
	}
}

func (c *Cache) lookup(key string) (string, bool) {
	data, err := os.ReadFile(c.indexPath(key))
	if err != nil {
		return "", false
	}
	objectPath := filepath.Join(c.root, "objects", strings.TrimSpace(string(data)))
	if _, err := os.Stat(objectPath); err != nil {
		return "", false
	}
	return objectPath, true
}

func (c *Cache) indexPath(key string) string {
	return filepath.Join(c.root, "index", key)
}

func hashKey(uri string) string {
	sum := blake3.Sum256([]byte(uri))
	return fmt.Sprintf("%x", sum)
}

// objectExt preserves the URI's file extension so downstream tools can
// sniff the media type from the name.
func objectExt(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	ext := filepath.Ext(parsed.Path)
	if len(ext) > 8 {
		return ""
	}
	return ext
}
