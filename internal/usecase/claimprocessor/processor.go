// Package claimprocessor orchestrates EvidenceRetriever and Judge for a
// single Claim, applying the secondary-provider and overflow-partition
// fallback cascades and computing per-claim confidence.
package claimprocessor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"factseeker/internal/domain/entity"
	"factseeker/internal/observability/metrics"
	"factseeker/internal/observability/tracing"
	"factseeker/internal/usecase/evidence"
	"factseeker/internal/usecase/judge"
	"factseeker/internal/usecase/ports"
)

// Config bounds judgment batching and gates the fallback cascades.
type Config struct {
	MaxConcurrentJudgments int
	MaxEvidencesPerClaim   int
	LowConfidenceThreshold int
	OverflowPartitionDigit string
}

// Processor produces one ClaimResult per Claim.
type Processor struct {
	retriever *evidence.Retriever
	judge     *judge.Evaluator
	primary   ports.SearchProvider
	secondary ports.SearchProvider
	cfg       Config

	claimsTotal         atomic.Int64
	insufficientEvidence atomic.Int64
}

// New constructs a Processor.
func New(retriever *evidence.Retriever, evaluator *judge.Evaluator, primary, secondary ports.SearchProvider, cfg Config) *Processor {
	return &Processor{retriever: retriever, judge: evaluator, primary: primary, secondary: secondary, cfg: cfg}
}

// Stats is a point-in-time snapshot of how often claims end the cascade
// without any accepted evidence, the strongest signal that the evidence
// sources (not just the HTTP surface) are degrading.
type Stats struct {
	ClaimsTotal          int64
	InsufficientEvidence int64
}

// EvidenceCoverageRatio returns the fraction of processed claims that
// ended with at least one accepted evidence item. 1 when no claims have
// been processed yet, since an empty denominator should read as "no
// signal of degradation" rather than "fully degraded".
func (s Stats) EvidenceCoverageRatio() float64 {
	if s.ClaimsTotal == 0 {
		return 1
	}
	return 1 - float64(s.InsufficientEvidence)/float64(s.ClaimsTotal)
}

// Stats reports cumulative claim outcomes since process start.
func (p *Processor) Stats() Stats {
	return Stats{
		ClaimsTotal:          p.claimsTotal.Load(),
		InsufficientEvidence: p.insufficientEvidence.Load(),
	}
}

// pass is one retrieval+judgment run's outcome.
type pass struct {
	evidence   []entity.Evidence
	confidence int
}

// Process runs the primary pass and, as gated by LowConfidenceThreshold, the
// secondary-provider and overflow-partition cascades, returning a
// ClaimResult that is never dropped even on internal failure.
func (p *Processor) Process(ctx context.Context, claim entity.Claim) (result entity.ClaimResult) {
	ctx, span := tracing.GetTracer().Start(ctx, "claimprocessor.Process")
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("claimprocessor: recovered from panic", slog.Any("panic", r), slog.String("claim", claim.Text))
			result = entity.ClaimResult{Claim: claim.Text, Result: entity.ResultError, Confidence: 0, Error: fmt.Sprintf("panic: %v", r)}
		}
		span.End()
		metrics.RecordClaimProcessed(string(result.Result), result.Confidence, time.Since(start))
	}()

	primary := p.runPass(ctx, claim, p.primary, nil, nil)
	best := primary
	seen := urlSet(primary.evidence)

	if best.confidence <= p.cfg.LowConfidenceThreshold {
		secondary := p.runPass(ctx, claim, p.secondary, seen, nil)
		improved := secondary.confidence > best.confidence
		metrics.RecordCascadeTrigger("secondary_provider", improved)
		if improved {
			best = secondary
		}
		for url := range urlSet(secondary.evidence) {
			seen[url] = true
		}
	}

	if best.confidence <= p.cfg.LowConfidenceThreshold && len(best.evidence) > 0 {
		overflow := p.runPass(ctx, claim, p.primary, seen, evidence.OverflowOnly(p.cfg.OverflowPartitionDigit))
		improved := overflow.confidence > best.confidence
		metrics.RecordCascadeTrigger("overflow_partition", improved)
		if improved {
			best = overflow
		}
	}

	label := entity.ResultInsufficientEvidence
	p.claimsTotal.Add(1)
	if len(best.evidence) > 0 {
		label = entity.ResultLikelyTrue
	} else {
		p.insufficientEvidence.Add(1)
	}

	out := best.evidence
	if len(out) > 3 {
		out = out[:3]
	}

	return entity.ClaimResult{
		Claim:      claim.Text,
		Result:     label,
		Confidence: best.confidence,
		Evidence:   out,
	}
}

// runPass retrieves candidates via provider (restricted to filter and
// excluding already-seen URLs), judges them in batches of
// MaxConcurrentJudgments, and stops once MaxEvidencesPerClaim accepted
// evidences are collected.
func (p *Processor) runPass(ctx context.Context, claim entity.Claim, provider ports.SearchProvider, exclude map[string]bool, filter evidence.PartitionFilter) pass {
	candidates, err := p.retriever.Retrieve(ctx, claim, provider, exclude, filter)
	if err != nil || len(candidates) == 0 {
		return pass{}
	}

	var accepted []entity.Evidence
	usedURL := map[string]bool{}

	for start := 0; start < len(candidates) && len(accepted) < p.cfg.MaxEvidencesPerClaim; start += p.cfg.MaxConcurrentJudgments {
		end := start + p.cfg.MaxConcurrentJudgments
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		verdicts := make([]entity.Verdict, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, c := range batch {
			i, c := i, c
			g.Go(func() error {
				verdicts[i] = p.judge.Evaluate(gctx, claim.Text, c.BodySnippet)
				return nil
			})
		}
		_ = g.Wait()

		for i, c := range batch {
			if len(accepted) >= p.cfg.MaxEvidencesPerClaim {
				break
			}
			v := verdicts[i]
			metrics.RecordJudgment(v.IsRelevant())
			if !v.IsRelevant() || usedURL[c.URL] {
				continue
			}
			usedURL[c.URL] = true
			accepted = append(accepted, entity.FromVerdict(c.URL, c.MatchedTitle, v))
		}
	}

	return pass{evidence: accepted, confidence: confidence(accepted)}
}

func urlSet(accepted []entity.Evidence) map[string]bool {
	out := make(map[string]bool, len(accepted))
	for _, e := range accepted {
		out[e.URL] = true
	}
	return out
}
