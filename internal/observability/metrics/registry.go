// Package metrics provides Prometheus metrics for the claim-to-evidence
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline-run metrics track end-to-end FactCheckVideo/FactCheckArticle
// requests.
var (
	// PipelineRequestsTotal counts completed pipeline runs by source kind
	// ("video"/"article") and outcome ("ok"/"source_unavailable"/
	// "extraction_failed").
	PipelineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_requests_total",
			Help: "Total number of FactCheckVideo/FactCheckArticle requests",
		},
		[]string{"source_kind", "outcome"},
	)

	// PipelineRequestDuration measures end-to-end request latency.
	PipelineRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_request_duration_seconds",
			Help:    "End-to-end FactCheckVideo/FactCheckArticle request duration",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"source_kind"},
	)

	// PipelineAggregateConfidence observes the aggregate_confidence value
	// of each completed request.
	PipelineAggregateConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_aggregate_confidence",
			Help:    "Aggregate confidence score (0-100) of completed requests",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
)

// Claim-level metrics track ClaimProcessor outcomes.
var (
	// ClaimsProcessedTotal counts ClaimProcessor runs by result label.
	ClaimsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claims_processed_total",
			Help: "Total number of claims processed, by result",
		},
		[]string{"result"}, // likely_true, insufficient_evidence, error
	)

	// ClaimDuration measures one ClaimProcessor.Process call's latency.
	ClaimDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "claim_process_duration_seconds",
			Help:    "Time taken to process one claim end-to-end",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)

	// ClaimConfidence observes each claim's final confidence score.
	ClaimConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "claim_confidence",
			Help:    "Per-claim confidence score (0-100)",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// EvidenceJudgmentsTotal counts Judge verdicts by relevance.
	EvidenceJudgmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_judgments_total",
			Help: "Total number of Judge verdicts, by relevance",
		},
		[]string{"relevance"}, // yes, no
	)

	// CascadeTriggersTotal counts how often each fallback cascade fires in
	// ClaimProcessor: "secondary_provider" and "overflow_partition".
	CascadeTriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_triggers_total",
			Help: "Total number of times a ClaimProcessor fallback cascade fired",
		},
		[]string{"cascade"},
	)

	// CascadeImprovedTotal counts how often a cascade pass actually beat
	// the best confidence seen so far (as opposed to firing but losing).
	CascadeImprovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_improved_total",
			Help: "Total number of times a fallback cascade pass improved confidence",
		},
		[]string{"cascade"},
	)
)

// Retrieval/cache metrics track ArticleIndexCache and TitleIndexRegistry
// state.
var (
	// ArticleCacheInFlight gauges the number of URLs currently
	// materializing in ArticleIndexCache (single-flight builds in
	// progress).
	ArticleCacheInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "article_cache_inflight_materializations",
			Help: "Number of ArticleIndexCache single-flight builds currently in progress",
		},
	)

	// ArticleCacheResultsTotal counts ArticleIndexCache.Get outcomes by
	// tier: "local_hit", "remote_hit", "fetched", "absent", "fetch_failed".
	ArticleCacheResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "article_cache_results_total",
			Help: "Total ArticleIndexCache.Get outcomes by tier",
		},
		[]string{"tier"},
	)

	// LoadedPartitionsGauge tracks the number of title partitions
	// currently held in a TitleIndexRegistry snapshot.
	LoadedPartitionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "title_partitions_loaded",
			Help: "Number of title-index partitions currently loaded in the registry snapshot",
		},
	)

	// PartitionReloadsTotal counts TitleIndexRegistry.Reload calls by
	// outcome ("ok"/"error").
	PartitionReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_partition_reloads_total",
			Help: "Total number of title partition reload attempts",
		},
		[]string{"outcome"},
	)
)
