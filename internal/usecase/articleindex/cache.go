// Package articleindex materializes per-URL article body vector indices
// with single-flight coalescing and a tiered (local directory / object
// store / fresh fetch) cache.
package articleindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"factseeker/internal/domain/entity"
	"factseeker/internal/observability/metrics"
	"factseeker/internal/usecase/ports"
)

// ErrFetchFailed is returned when local cache, object store, and a fresh
// fetch all fail to produce a usable article body. Callers that expect
// "absent" on ordinary misses should not see this error; it signals every
// tier was exhausted.
var ErrFetchFailed = errors.New("articleindex: fetch failed on all tiers")

const (
	minBodyLength = 200
	objectKeyRoot = "article_faiss_cache"
	metadataFile  = "metadata.json"
	embeddingFile = "embedding.json"
)

// persisted is the on-disk/object-store representation of one ArticleIndex.
type persisted struct {
	URL       string    `json:"url"`
	Body      string    `json:"body"`
	Embedding []float32 `json:"embedding"`
}

// Cache materializes ArticleIndex entries for URLs, guaranteeing at most
// one in-flight build per URL system-wide.
type Cache struct {
	fetcher     ports.TextFetcher
	embedder    ports.Embedder
	objectStore ports.ObjectStore
	localDir    string

	group    singleflight.Group
	inFlight atomic.Int64
}

// New constructs a Cache. localDir is the root directory for the local-disk
// cache tier; a per-URL subdirectory is derived from hash(url).
func New(fetcher ports.TextFetcher, embedder ports.Embedder, objectStore ports.ObjectStore, localDir string) *Cache {
	return &Cache{
		fetcher:     fetcher,
		embedder:    embedder,
		objectStore: objectStore,
		localDir:    localDir,
	}
}

// Get returns the ArticleIndex for url, or ok=false if the body could not
// be obtained or was too short. It returns ErrFetchFailed only when every
// tier (local, remote, fresh fetch) errors outright; a body that is simply
// absent or too short returns ok=false with a nil error, per the
// "fails silently" contract.
func (c *Cache) Get(ctx context.Context, url string) (entity.ArticleIndex, bool, error) {
	key := hashURL(url)

	c.inFlight.Add(1)
	metrics.SetArticleCacheInFlight(int(c.inFlight.Load()))
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.materialize(ctx, url, key)
	})
	metrics.SetArticleCacheInFlight(int(c.inFlight.Add(-1)))

	if err != nil {
		if errors.Is(err, errAbsent) {
			metrics.RecordArticleCacheResult("absent")
			return entity.ArticleIndex{}, false, nil
		}
		metrics.RecordArticleCacheResult("fetch_failed")
		return entity.ArticleIndex{}, false, fmt.Errorf("%w: %s: %v", ErrFetchFailed, url, err)
	}

	r := v.(result)
	metrics.RecordArticleCacheResult(r.tier)
	return entity.ArticleIndex{URL: r.p.URL, BodyText: r.p.Body, Embedding: r.p.Embedding}, true, nil
}

// result pairs a materialized article with the cache tier that satisfied it.
type result struct {
	p    persisted
	tier string
}

// errAbsent is a private sentinel distinguishing "no body available" from a
// genuine fetch failure within the singleflight closure; it never escapes
// Get.
var errAbsent = errors.New("articleindex: absent")

func (c *Cache) materialize(ctx context.Context, url, key string) (result, error) {
	dir := filepath.Join(c.localDir, key)

	if p, ok := c.loadLocal(dir); ok {
		return result{p: p, tier: "local_hit"}, nil
	}

	if p, ok := c.loadRemote(ctx, key); ok {
		if err := c.saveLocal(dir, p); err != nil {
			slog.Warn("articleindex: failed to cache remote copy locally",
				slog.String("url", url), slog.String("error", err.Error()))
		}
		return result{p: p, tier: "remote_hit"}, nil
	}

	body, err := c.fetcher.FetchArticleBody(ctx, url)
	if err != nil {
		// A genuine fetch error (as opposed to an empty/short body) means
		// every tier is exhausted: local miss, remote miss, and now the
		// fresh fetch itself errored. That is the ErrFetchFailed the
		// caller sees, distinct from the silent "absent" of a body that
		// was simply too short.
		slog.Warn("articleindex: fresh fetch failed", slog.String("url", url), slog.String("error", err.Error()))
		return result{}, fmt.Errorf("%w", err)
	}
	if len(body) < minBodyLength {
		return result{}, errAbsent
	}

	embeddings, err := c.embedder.EmbedDocuments(ctx, []string{body})
	if err != nil || len(embeddings) == 0 {
		slog.Warn("articleindex: embedding failed for fetched body", slog.String("url", url))
		return result{}, errAbsent
	}

	p := persisted{URL: url, Body: body, Embedding: embeddings[0]}

	if err := c.saveLocal(dir, p); err != nil {
		slog.Warn("articleindex: local persist failed", slog.String("url", url), slog.String("error", err.Error()))
	}

	// Object-store upload is best-effort: failure is logged, never
	// propagated to the caller.
	if c.objectStore != nil {
		objects, marshalErr := toObjects(p)
		if marshalErr == nil {
			if uploadErr := c.objectStore.Put(ctx, objectKey(key), objects); uploadErr != nil {
				slog.Warn("articleindex: object-store upload failed",
					slog.String("url", url), slog.String("error", uploadErr.Error()))
			}
		}
	}

	return result{p: p, tier: "fetched"}, nil
}

func (c *Cache) loadLocal(dir string) (persisted, bool) {
	p, err := readPersisted(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			// Corruption recovery: any load failure removes the local
			// directory and falls through to the next tier.
			_ = os.RemoveAll(dir)
		}
		return persisted{}, false
	}
	return p, true
}

func (c *Cache) loadRemote(ctx context.Context, key string) (persisted, bool) {
	if c.objectStore == nil {
		return persisted{}, false
	}
	objects, ok, err := c.objectStore.Get(ctx, objectKey(key))
	if err != nil || !ok {
		return persisted{}, false
	}
	p, err := fromObjects(objects)
	if err != nil {
		return persisted{}, false
	}
	return p, true
}

func (c *Cache) saveLocal(dir string, p persisted) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	metaBytes, err := json.Marshal(struct {
		URL string `json:"url"`
		Body string `json:"body"`
	}{URL: p.URL, Body: p.Body})
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	embBytes, err := json.Marshal(p.Embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	// Write-then-rename keeps concurrent writers of the same key from
	// producing a corrupt file, per the object-store/local idempotent
	// write policy.
	if err := writeThenRename(filepath.Join(dir, metadataFile), metaBytes); err != nil {
		return err
	}
	return writeThenRename(filepath.Join(dir, embeddingFile), embBytes)
}

func writeThenRename(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func readPersisted(dir string) (persisted, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return persisted{}, err
	}
	embBytes, err := os.ReadFile(filepath.Join(dir, embeddingFile))
	if err != nil {
		return persisted{}, err
	}

	var meta struct {
		URL  string `json:"url"`
		Body string `json:"body"`
	}
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return persisted{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	var embedding []float32
	if err := json.Unmarshal(embBytes, &embedding); err != nil {
		return persisted{}, fmt.Errorf("unmarshal embedding: %w", err)
	}

	return persisted{URL: meta.URL, Body: meta.Body, Embedding: embedding}, nil
}

func toObjects(p persisted) (map[string][]byte, error) {
	metaBytes, err := json.Marshal(struct {
		URL  string `json:"url"`
		Body string `json:"body"`
	}{URL: p.URL, Body: p.Body})
	if err != nil {
		return nil, err
	}
	embBytes, err := json.Marshal(p.Embedding)
	if err != nil {
		return nil, err
	}
	return map[string][]byte{metadataFile: metaBytes, embeddingFile: embBytes}, nil
}

func fromObjects(objects map[string][]byte) (persisted, error) {
	metaBytes, ok := objects[metadataFile]
	if !ok {
		return persisted{}, fmt.Errorf("missing %s", metadataFile)
	}
	embBytes, ok := objects[embeddingFile]
	if !ok {
		return persisted{}, fmt.Errorf("missing %s", embeddingFile)
	}

	var meta struct {
		URL  string `json:"url"`
		Body string `json:"body"`
	}
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return persisted{}, err
	}
	var embedding []float32
	if err := json.Unmarshal(embBytes, &embedding); err != nil {
		return persisted{}, err
	}
	return persisted{URL: meta.URL, Body: meta.Body, Embedding: embedding}, nil
}

func objectKey(hash string) string {
	return fmt.Sprintf("%s/%s/", objectKeyRoot, hash)
}

func hashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
