package pipeline

import (
	"fmt"
	"math"

	"factseeker/internal/domain/entity"
)

// aggregateConfidence computes the weighted mean across a
// request's ClaimResults: confidence 0 with zero evidence is floor
// substituted to 10 before weighting, so a claim with literally no signal
// still pulls the aggregate toward a nonzero but low score rather than a
// true zero, which is reserved for "no claims at all."
func aggregateConfidence(results []entity.ClaimResult) int {
	var sumWeighted, sumWeight float64

	for _, r := range results {
		conf := float64(r.Confidence)
		if r.Confidence == 0 && r.EvidenceCount() == 0 {
			conf = 10
		}
		evidenceWeight := math.Min(float64(r.EvidenceCount()+1), 5)
		confidenceWeight := math.Max(conf/20, 0.5)
		weight := evidenceWeight * confidenceWeight

		sumWeighted += conf * weight
		sumWeight += weight
	}

	if sumWeight == 0 {
		return 0
	}
	return int(math.Round(sumWeighted / sumWeight))
}

// buildSummary produces the request-level summary string: a percentage of
// likely_true claims when there are enough claims to make a percentage
// meaningful, otherwise an explicit low-count marker.
func buildSummary(results []entity.ClaimResult) string {
	n := len(results)
	if n < 3 {
		return fmt.Sprintf("insufficient_claims: %d", n)
	}

	likely := 0
	for _, r := range results {
		if r.Result == entity.ResultLikelyTrue {
			likely++
		}
	}
	pct := float64(likely) / float64(n) * 100
	return fmt.Sprintf("%.1f%% of claims with evidence", pct)
}
