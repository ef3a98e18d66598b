// Package factcheck provides HTTP handlers for the claim-to-evidence
// fact-check pipeline's two entry points: video transcripts and article
// bodies.
package factcheck

import (
	"time"

	"factseeker/internal/domain/entity"
)

// EvidenceDTO represents one accepted Evidence entry in the bit-exact
// PipelineResult JSON schema.
type EvidenceDTO struct {
	URL             string `json:"url"`
	Relevance       string `json:"relevance"`
	FactCheckResult string `json:"fact_check_result"`
	Justification   string `json:"justification"`
	Snippet         string `json:"snippet"`
}

// ClaimResultDTO represents one ClaimResult entry.
type ClaimResultDTO struct {
	Claim           string        `json:"claim"`
	Result          string        `json:"result"`
	ConfidenceScore int           `json:"confidence_score"`
	Evidence        []EvidenceDTO `json:"evidence"`
	Error           string        `json:"error,omitempty"`
}

// ArticleResultDTO is the PipelineResult JSON shape for FactCheckArticle,
// using the "article_url"/"article_total_confidence_score" field names.
type ArticleResultDTO struct {
	ArticleURL            string           `json:"article_url"`
	ArticleConfidenceScore int             `json:"article_total_confidence_score"`
	Summary                string           `json:"summary"`
	Claims                 []ClaimResultDTO `json:"claims"`
	Keywords                []string         `json:"keywords"`
	ThreeLineSummary         string           `json:"three_line_summary"`
	CreatedAt                time.Time        `json:"created_at"`
}

// VideoResultDTO is the PipelineResult JSON shape for FactCheckVideo, using
// the "video_id"/"video_url"/"video_total_confidence_score" field names and
// adding the video-only channel_type fields.
type VideoResultDTO struct {
	VideoID              string           `json:"video_id"`
	VideoURL             string           `json:"video_url"`
	VideoConfidenceScore int              `json:"video_total_confidence_score"`
	Summary              string           `json:"summary"`
	Claims               []ClaimResultDTO `json:"claims"`
	Keywords             []string         `json:"keywords"`
	ThreeLineSummary     string           `json:"three_line_summary"`
	ChannelType          string           `json:"channel_type,omitempty"`
	ChannelTypeReason    string           `json:"channel_type_reason,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

func toClaimResultDTOs(results []entity.ClaimResult) []ClaimResultDTO {
	out := make([]ClaimResultDTO, len(results))
	for i, r := range results {
		evidence := make([]EvidenceDTO, len(r.Evidence))
		for j, e := range r.Evidence {
			evidence[j] = EvidenceDTO{
				URL:             e.URL,
				Relevance:       e.Relevance,
				FactCheckResult: e.FactDescription,
				Justification:   e.Justification,
				Snippet:         e.Snippet,
			}
		}
		out[i] = ClaimResultDTO{
			Claim:           r.Claim,
			Result:          string(r.Result),
			ConfidenceScore: r.Confidence,
			Evidence:        evidence,
			Error:           r.Error,
		}
	}
	return out
}

func toArticleResultDTO(articleURL string, result entity.PipelineResult) ArticleResultDTO {
	return ArticleResultDTO{
		ArticleURL:             articleURL,
		ArticleConfidenceScore: result.AggregateConfidence,
		Summary:                result.Summary,
		Claims:                 toClaimResultDTOs(result.Claims),
		Keywords:               result.Keywords,
		ThreeLineSummary:       result.ThreeLineSummary,
		CreatedAt:              result.CreatedAt,
	}
}

func toVideoResultDTO(videoURL string, result entity.PipelineResult) VideoResultDTO {
	return VideoResultDTO{
		VideoID:              result.SourceID,
		VideoURL:             videoURL,
		VideoConfidenceScore: result.AggregateConfidence,
		Summary:              result.Summary,
		Claims:               toClaimResultDTOs(result.Claims),
		Keywords:             result.Keywords,
		ThreeLineSummary:     result.ThreeLineSummary,
		ChannelType:          result.ChannelType,
		ChannelTypeReason:    result.ChannelTypeReason,
		CreatedAt:            result.CreatedAt,
	}
}
