package config

import (
	"fmt"
	"time"

	"factseeker/pkg/config"
)

// PipelineConfig aggregates every tunable of the claim-to-evidence pipeline.
// It is loaded once at process start (see cmd/api/main.go, cmd/worker/main.go)
// and injected into constructors; no component reads the environment
// mid-flight.
type PipelineConfig struct {
	// MaxClaims bounds the reduced ClaimSet size.
	MaxClaims int

	// MaxArticlesPerClaim bounds EvidenceRetriever's candidate output.
	MaxArticlesPerClaim int

	// DistanceThreshold is the L2 distance cutoff for an acceptable title
	// k-NN match.
	DistanceThreshold float32

	// MaxConcurrentClaims bounds claim-level fan-out in PipelineDriver.
	MaxConcurrentClaims int

	// MaxConcurrentJudgments bounds Judge calls per claim in ClaimProcessor.
	MaxConcurrentJudgments int

	// MaxConcurrentBodyFetches bounds ArticleIndexCache calls per claim in
	// EvidenceRetriever.
	MaxConcurrentBodyFetches int

	// MaxEvidencesPerClaim stops ClaimProcessor's acceptance batching once
	// reached.
	MaxEvidencesPerClaim int

	// PartitionStopHits is the number of new URLs per partition that
	// triggers early termination of partition iteration.
	PartitionStopHits int

	// LowConfidenceThreshold gates the secondary-provider and
	// overflow-partition cascades.
	LowConfidenceThreshold int

	// OverflowPartitionDigit identifies the designated overflow partition:
	// the partition whose identifier contains this substring.
	OverflowPartitionDigit string

	// PartitionCount is the number of regular title partitions (0..N-1),
	// excluding the overflow partition. Shared with ingest.Catalog's
	// TITLE_PARTITION_COUNT so the API preloads exactly the partitions the
	// worker writes.
	PartitionCount int

	// ObjectStoreBucket names the S3-compatible bucket backing the
	// object-store cache tier.
	ObjectStoreBucket string

	// LocalCacheDir is the root directory for the local-disk cache tier of
	// ArticleIndexCache and TitleIndexRegistry partitions.
	LocalCacheDir string

	Timeouts PipelineTimeouts
}

// PipelineTimeouts holds the per-collaborator upper-bound timeouts named in
// the concurrency & resource model.
type PipelineTimeouts struct {
	Search      time.Duration
	Embedding   time.Duration
	ObjectStore time.Duration
}

// LoadPipelineConfig loads PipelineConfig from the environment, applying the
// defaults named alongside each recognized variable, then validates it.
func LoadPipelineConfig() (*PipelineConfig, error) {
	cfg := &PipelineConfig{
		MaxClaims:                config.GetEnvInt("MAX_CLAIMS_TO_FACT_CHECK", 10),
		MaxArticlesPerClaim:      config.GetEnvInt("MAX_ARTICLES_PER_CLAIM", 10),
		DistanceThreshold:        float32GetEnv("DISTANCE_THRESHOLD", 0.8),
		MaxConcurrentClaims:      config.GetEnvInt("MAX_CONCURRENT_CLAIMS", 3),
		MaxConcurrentJudgments:   config.GetEnvInt("MAX_CONCURRENT_JUDGMENTS", 7),
		MaxConcurrentBodyFetches: config.GetEnvInt("MAX_CONCURRENT_BODY_FETCHES", 7),
		MaxEvidencesPerClaim:     config.GetEnvInt("MAX_EVIDENCES_PER_CLAIM", 10),
		PartitionStopHits:        config.GetEnvInt("PARTITION_STOP_HITS", 1),
		LowConfidenceThreshold:   config.GetEnvInt("LOW_CONFIDENCE_THRESHOLD", 20),
		OverflowPartitionDigit:   config.GetEnvString("OVERFLOW_PARTITION_DIGIT", "9"),
		PartitionCount:           config.GetEnvInt("TITLE_PARTITION_COUNT", 9),
		ObjectStoreBucket:        config.GetEnvString("S3_BUCKET_NAME", ""),
		LocalCacheDir:            config.GetEnvString("LOCAL_CACHE_DIR", "/tmp/factseeker-cache"),
		Timeouts: PipelineTimeouts{
			Search:      config.GetEnvDuration("SEARCH_TIMEOUT", 15*time.Second),
			Embedding:   config.GetEnvDuration("EMBEDDING_TIMEOUT", 60*time.Second),
			ObjectStore: config.GetEnvDuration("OBJECT_STORE_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration correctness.
func (c *PipelineConfig) Validate() error {
	if c.MaxClaims <= 0 {
		return fmt.Errorf("MAX_CLAIMS_TO_FACT_CHECK must be positive")
	}
	if c.MaxArticlesPerClaim <= 0 {
		return fmt.Errorf("MAX_ARTICLES_PER_CLAIM must be positive")
	}
	if c.DistanceThreshold <= 0 {
		return fmt.Errorf("DISTANCE_THRESHOLD must be positive")
	}
	if c.MaxConcurrentClaims <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_CLAIMS must be positive")
	}
	if c.MaxConcurrentJudgments <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_JUDGMENTS must be positive")
	}
	if c.MaxConcurrentBodyFetches <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_BODY_FETCHES must be positive")
	}
	if c.MaxEvidencesPerClaim <= 0 {
		return fmt.Errorf("MAX_EVIDENCES_PER_CLAIM must be positive")
	}
	if c.PartitionStopHits <= 0 {
		return fmt.Errorf("PARTITION_STOP_HITS must be positive")
	}
	if c.LowConfidenceThreshold < 0 || c.LowConfidenceThreshold > 100 {
		return fmt.Errorf("LOW_CONFIDENCE_THRESHOLD must be between 0 and 100")
	}
	if c.OverflowPartitionDigit == "" {
		return fmt.Errorf("OVERFLOW_PARTITION_DIGIT must not be empty")
	}
	if c.PartitionCount <= 0 {
		return fmt.Errorf("TITLE_PARTITION_COUNT must be positive")
	}
	if c.Timeouts.Search <= 0 || c.Timeouts.Embedding <= 0 || c.Timeouts.ObjectStore <= 0 {
		return fmt.Errorf("pipeline timeouts must be positive")
	}
	return nil
}

func float32GetEnv(key string, defaultValue float32) float32 {
	// GetEnvString+manual parse keeps this in the same "no mid-flight env
	// reads" style as the rest of PipelineConfig while pkg/config has no
	// float helper.
	raw := config.GetEnvString(key, "")
	if raw == "" {
		return defaultValue
	}
	var f float64
	if _, err := fmt.Sscanf(raw, "%g", &f); err != nil {
		return defaultValue
	}
	return float32(f)
}
