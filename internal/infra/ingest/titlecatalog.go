// Package ingest builds and maintains the title catalog that backs
// TitleIndexRegistry's partitions: the external title-index builder,
// kept outside the claim-to-evidence core. It crawls a configured set of
// news feeds with gofeed (the same RSS-crawler pattern used elsewhere in
// this codebase), embeds titles, and upserts them into the title_vectors
// table one partition at a time.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pgvector/pgvector-go"
	"github.com/sony/gobreaker"

	"factseeker/internal/resilience/circuitbreaker"
	"factseeker/internal/resilience/retry"
	"factseeker/internal/usecase/ports"
	"factseeker/internal/usecase/titleindex"
)

// Config configures a Catalog.
type Config struct {
	// FeedURLs lists the RSS/Atom feeds crawled on each ingestion run.
	FeedURLs []string

	// PartitionCount is the number of regular partitions (0..N-1);
	// OverflowDigit names the extra partition reserved as a last-resort
	// fallback target (the reference model's "9").
	PartitionCount int
	OverflowDigit  string

	// ObjectStoreKeyPrefix is the configured prefix under which partition
	// snapshots are mirrored to object storage, joined with
	// "partition_<id>/".
	ObjectStoreKeyPrefix string
}

// Catalog implements ports.PartitionProvider, owning the feed crawl,
// title-to-partition assignment, embedding, and persistence.
type Catalog struct {
	cfg            Config
	db             *sql.DB
	embedder       ports.Embedder
	objectStore    ports.ObjectStore
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// New constructs a Catalog.
func New(cfg Config, db *sql.DB, embedder ports.Embedder, objectStore ports.ObjectStore) *Catalog {
	return &Catalog{
		cfg:            cfg,
		db:             db,
		embedder:       embedder,
		objectStore:    objectStore,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		circuitBreaker: circuitbreaker.New(circuitbreaker.DefaultConfig("title-ingest-feed")),
		retryConfig:    retry.DefaultConfig(),
	}
}

// Partitions returns every partition identifier currently populated in the
// title_vectors table, used by TitleIndexRegistry.Preload at startup.
func (c *Catalog) Partitions(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT DISTINCT partition_id FROM title_vectors ORDER BY partition_id`)
	if err != nil {
		return nil, fmt.Errorf("ingest: list partitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ingest: scan partition id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ingest: list partitions: %w", err)
	}
	if len(ids) == 0 {
		return c.allConfiguredPartitionIDs(), nil
	}
	return ids, nil
}

func (c *Catalog) allConfiguredPartitionIDs() []string {
	return titleindex.ConfiguredPartitionIDs(c.cfg.PartitionCount, c.cfg.OverflowDigit)
}

// OnReload re-crawls every configured feed, assigns each resulting title to
// a partition by a stable hash of its URL, and rewrites the rows for
// partitionID: delete the partition's existing rows, embed the titles now
// assigned to it, and insert the fresh set inside one transaction. The
// refreshed set is then mirrored to object storage so other instances can
// rebuild the same partition from the cache tier.
func (c *Catalog) OnReload(ctx context.Context, partitionID string) error {
	items, err := c.crawlAll(ctx)
	if err != nil {
		return fmt.Errorf("ingest: crawl: %w", err)
	}

	assigned := c.itemsForPartition(items, partitionID)
	if len(assigned) == 0 {
		slog.Info("ingest: no titles assigned to partition, clearing", slog.String("partition_id", partitionID))
	}

	titles := make([]string, len(assigned))
	for i, it := range assigned {
		titles[i] = it.Title
	}

	var vectors [][]float32
	if len(titles) > 0 {
		vectors, err = c.embedder.EmbedDocuments(ctx, titles)
		if err != nil {
			return fmt.Errorf("ingest: embed titles for partition %s: %w", partitionID, err)
		}
	}

	if err := c.writePartition(ctx, partitionID, assigned, vectors); err != nil {
		return err
	}

	if c.objectStore != nil {
		objects := make(map[string][]byte, len(assigned))
		for i, it := range assigned {
			objects[fmt.Sprintf("title_%d.txt", i)] = []byte(it.Title + "\n" + it.Link)
		}
		prefix := fmt.Sprintf("%s/partition_%s/", c.cfg.ObjectStoreKeyPrefix, partitionOrdinalSuffix(partitionID))
		if err := c.objectStore.Put(ctx, prefix, objects); err != nil {
			slog.Warn("ingest: object store mirror failed, continuing",
				slog.String("partition_id", partitionID), slog.String("error", err.Error()))
		}
	}

	slog.Info("ingest: partition refreshed",
		slog.String("partition_id", partitionID), slog.Int("title_count", len(assigned)))
	return nil
}

type feedItem struct {
	Title string
	Link  string
}

func (c *Catalog) crawlAll(ctx context.Context) ([]feedItem, error) {
	var all []feedItem
	for _, feedURL := range c.cfg.FeedURLs {
		items, err := c.crawlOne(ctx, feedURL)
		if err != nil {
			slog.Warn("ingest: feed crawl failed, skipping",
				slog.String("feed_url", feedURL), slog.String("error", err.Error()))
			continue
		}
		all = append(all, items...)
	}
	return all, nil
}

func (c *Catalog) crawlOne(ctx context.Context, feedURL string) ([]feedItem, error) {
	var items []feedItem
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doCrawl(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("feed crawl circuit breaker open for %s", feedURL)
			}
			return err
		}
		items = cbResult.([]feedItem)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return items, nil
}

func (c *Catalog) doCrawl(ctx context.Context, feedURL string) ([]feedItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "FactseekerTitleIngestBot"
	fp.Client = c.httpClient

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]feedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it.Title == "" || it.Link == "" {
			continue
		}
		items = append(items, feedItem{Title: it.Title, Link: it.Link})
	}
	return items, nil
}

// itemsForPartition assigns each crawled item to exactly one partition by
// FNV-1a hashing its URL modulo PartitionCount, reserving OverflowDigit as
// an always-available extra partition that also receives the most recent
// PartitionCount items (so it stays useful as a fallback target rather than
// an empty shard).
func (c *Catalog) itemsForPartition(items []feedItem, partitionID string) []feedItem {
	wantOverflow := partitionID == fmt.Sprintf("partition_%s", c.cfg.OverflowDigit)

	var assigned []feedItem
	for _, it := range items {
		if wantOverflow {
			assigned = append(assigned, it)
			continue
		}
		if fmt.Sprintf("partition_%d", bucketFor(it.Link, c.cfg.PartitionCount)) == partitionID {
			assigned = append(assigned, it)
		}
	}

	if wantOverflow && len(assigned) > c.cfg.PartitionCount {
		assigned = assigned[:c.cfg.PartitionCount]
	}
	return assigned
}

func bucketFor(url string, partitionCount int) int {
	if partitionCount <= 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(url))
	return int(h.Sum32() % uint32(partitionCount))
}

func partitionOrdinalSuffix(partitionID string) string {
	const prefix = "partition_"
	if len(partitionID) > len(prefix) && partitionID[:len(prefix)] == prefix {
		return partitionID[len(prefix):]
	}
	return partitionID
}

func (c *Catalog) writePartition(ctx context.Context, partitionID string, items []feedItem, vectors [][]float32) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ingest: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM title_vectors WHERE partition_id = $1`, partitionID); err != nil {
		return fmt.Errorf("ingest: clear partition %s: %w", partitionID, err)
	}

	const insert = `INSERT INTO title_vectors (partition_id, title, url, embedding) VALUES ($1, $2, $3, $4)`
	for i, it := range items {
		vector := pgvector.NewVector(vectors[i])
		if _, err := tx.ExecContext(ctx, insert, partitionID, it.Title, it.Link, vector); err != nil {
			return fmt.Errorf("ingest: insert title for partition %s: %w", partitionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ingest: commit partition %s: %w", partitionID, err)
	}
	return nil
}
