// Package metrics provides Prometheus metrics for the claim-to-evidence
// pipeline: claims processed, evidence accepted/rejected, cascade
// triggers, per-claim/per-request latency, and cache/partition gauges.
//
// All metrics are automatically registered with the Prometheus default
// registry and exposed via the /metrics endpoint (HTTP-surface metrics
// live separately in internal/handler/http, which owns the request/
// response instrumentation).
//
// Example usage:
//
//	import "factseeker/internal/observability/metrics"
//
//	start := time.Now()
//	result := processor.Process(ctx, claim)
//	metrics.RecordClaimProcessed(string(result.Result), result.Confidence, time.Since(start))
package metrics
