package entity

import "time"

// ClaimResultLabel enumerates the result labels a ClaimResult may carry.
type ClaimResultLabel string

const (
	ResultLikelyTrue           ClaimResultLabel = "likely_true"
	ResultInsufficientEvidence ClaimResultLabel = "insufficient_evidence"
	ResultError                ClaimResultLabel = "error"
)

// ClaimResult is the outcome of running one Claim through the ClaimProcessor.
type ClaimResult struct {
	Claim      string
	Result     ClaimResultLabel
	Confidence int
	Evidence   []Evidence
	Error      string
}

// EvidenceCount returns len(Evidence), used by the confidence and aggregate
// weighting formulas.
func (r ClaimResult) EvidenceCount() int {
	return len(r.Evidence)
}

// PipelineResult is the top-level output of one FactCheckVideo/FactCheckArticle
// request.
type PipelineResult struct {
	// SourceID is the video id or the article URL.
	SourceID string

	// SourceURL is the original video URL, populated for the video variant.
	SourceURL string

	// AggregateConfidence is the weighted mean of per-claim confidences,
	// rounded to an integer 0..100.
	AggregateConfidence int

	Summary string

	Claims []ClaimResult

	// Keywords is the auxiliary keyword-extraction output.
	Keywords []string

	// ThreeLineSummary is the auxiliary three-line summarization output.
	ThreeLineSummary string

	// ChannelType and ChannelTypeReason are populated only for the video
	// pipeline variant.
	ChannelType       string
	ChannelTypeReason string

	CreatedAt time.Time
}
