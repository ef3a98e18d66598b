package config

import (
	"fmt"

	"factseeker/pkg/config"
)

// IngestConfig configures cmd/worker's title-catalog ingestion job: the
// RSS/Atom feeds to crawl and how titles are bucketed into partitions.
type IngestConfig struct {
	// FeedURLs lists the RSS/Atom feeds crawled on each ingestion run.
	FeedURLs []string

	// PartitionCount is the number of regular title partitions (0..N-1),
	// excluding the designated overflow partition.
	PartitionCount int

	// ObjectStoreKeyPrefix is the configured prefix under which partition
	// snapshots are mirrored to object storage.
	ObjectStoreKeyPrefix string

	// ReloadSchedule is the cron expression for the re-ingestion job.
	ReloadSchedule string
}

// LoadIngestConfig loads IngestConfig from the environment.
func LoadIngestConfig() (*IngestConfig, error) {
	cfg := &IngestConfig{
		FeedURLs:             config.GetEnvStringList("TITLE_FEED_URLS", nil),
		PartitionCount:       config.GetEnvInt("TITLE_PARTITION_COUNT", 9),
		ObjectStoreKeyPrefix: config.GetEnvString("TITLE_OBJECT_STORE_PREFIX", "title_partitions"),
		ReloadSchedule:       config.GetEnvString("TITLE_INGEST_SCHEDULE", "0 */6 * * *"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ingest configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration correctness.
func (c *IngestConfig) Validate() error {
	if c.PartitionCount <= 0 {
		return fmt.Errorf("TITLE_PARTITION_COUNT must be positive")
	}
	if len(c.FeedURLs) == 0 {
		return fmt.Errorf("TITLE_FEED_URLS must name at least one feed")
	}
	return nil
}
