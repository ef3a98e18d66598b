package claimprocessor

import (
	"math"
	"net/url"

	"factseeker/internal/domain/entity"
)

// sourceDiversityBand maps a distinct-source count to the 0-5 band used by
// the confidence formula.
func sourceDiversityBand(distinct int) int {
	switch {
	case distinct >= 4:
		return 5
	case distinct == 3:
		return 4
	case distinct == 2:
		return 3
	case distinct == 1:
		return 1
	default:
		return 0
	}
}

// sourceKey identifies the source of one accepted Evidence entry, preferring
// its matched source title over the URL host.
func sourceKey(e entity.Evidence) string {
	if e.SourceTitle != "" {
		return e.SourceTitle
	}
	if host := urlHost(e.URL); host != "" {
		return host
	}
	return e.URL
}

func urlHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// confidence computes the confidence formula: evidence_count clamped
// to 0..5 weighted 12 each, plus the source-diversity band weighted 8,
// rounded and bounded to [0,100].
func confidence(accepted []entity.Evidence) int {
	count := len(accepted)
	if count > 5 {
		count = 5
	}

	sources := map[string]bool{}
	for _, e := range accepted {
		sources[sourceKey(e)] = true
	}
	diversity := sourceDiversityBand(len(sources))

	raw := float64(count*12 + diversity*8)
	score := int(math.Round(raw))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
