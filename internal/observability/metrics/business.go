package metrics

import "time"

// RecordPipelineRequest records a completed FactCheckVideo/FactCheckArticle
// request: its duration, aggregate confidence, and outcome.
func RecordPipelineRequest(sourceKind, outcome string, duration time.Duration, aggregateConfidence int) {
	PipelineRequestsTotal.WithLabelValues(sourceKind, outcome).Inc()
	PipelineRequestDuration.WithLabelValues(sourceKind).Observe(duration.Seconds())
	if outcome == "ok" {
		PipelineAggregateConfidence.Observe(float64(aggregateConfidence))
	}
}

// RecordClaimProcessed records one ClaimProcessor.Process outcome: its
// result label, final confidence, and wall-clock duration.
func RecordClaimProcessed(result string, confidence int, duration time.Duration) {
	ClaimsProcessedTotal.WithLabelValues(result).Inc()
	ClaimDuration.Observe(duration.Seconds())
	ClaimConfidence.Observe(float64(confidence))
}

// RecordJudgment records one Judge verdict's relevance.
func RecordJudgment(relevant bool) {
	relevance := "no"
	if relevant {
		relevance = "yes"
	}
	EvidenceJudgmentsTotal.WithLabelValues(relevance).Inc()
}

// RecordCascadeTrigger records that a fallback cascade fired ("secondary_provider"
// or "overflow_partition"), and whether it improved the chosen confidence.
func RecordCascadeTrigger(cascade string, improved bool) {
	CascadeTriggersTotal.WithLabelValues(cascade).Inc()
	if improved {
		CascadeImprovedTotal.WithLabelValues(cascade).Inc()
	}
}

// RecordArticleCacheResult records one ArticleIndexCache.Get outcome by
// which tier satisfied it: "local_hit", "remote_hit", "fetched", "absent",
// or "fetch_failed".
func RecordArticleCacheResult(tier string) {
	ArticleCacheResultsTotal.WithLabelValues(tier).Inc()
}

// SetArticleCacheInFlight sets the current count of in-progress
// single-flight article materializations.
func SetArticleCacheInFlight(count int) {
	ArticleCacheInFlight.Set(float64(count))
}

// SetLoadedPartitions sets the current number of title partitions loaded
// in a TitleIndexRegistry snapshot.
func SetLoadedPartitions(count int) {
	LoadedPartitionsGauge.Set(float64(count))
}

// RecordPartitionReload records a TitleIndexRegistry.Reload attempt's
// outcome ("ok" or "error").
func RecordPartitionReload(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	PartitionReloadsTotal.WithLabelValues(outcome).Inc()
}
