// Package pipeline implements PipelineDriver: the end-to-end entry point
// that acquires source text, extracts and reduces claims, fans out
// ClaimProcessor per claim, runs the auxiliary metadata collaborators
// concurrently, and aggregates the final PipelineResult.
package pipeline

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
	"factseeker/internal/usecase/claimextract"
	"factseeker/internal/usecase/claimprocessor"
	"factseeker/internal/usecase/ports"
)

// Config bounds claim-level fan-out.
type Config struct {
	MaxConcurrentClaims int
}

// Driver wires together source acquisition, claim extraction, and
// per-claim processing into one request-scoped run.
type Driver struct {
	fetcher   ports.TextFetcher
	claims    *claimextract.Pipeline
	processor *claimprocessor.Processor

	keywords   ports.KeywordExtractor
	threeLine  ports.ThreeLineSummarizer
	channel    ports.ChannelTypeClassifier

	cfg Config

	totalRequests atomic.Int64
	errorRequests atomic.Int64
	latencySumMs  atomic.Int64
}

// Stats is a point-in-time snapshot of request counts and mean latency,
// suitable for feeding a periodic SLO gauge updater.
type Stats struct {
	Total       int64
	Errors      int64
	MeanLatency time.Duration
}

// Stats reports cumulative request counts and mean latency since process
// start. It is cheap enough to poll on a short interval.
func (d *Driver) Stats() Stats {
	total := d.totalRequests.Load()
	mean := time.Duration(0)
	if total > 0 {
		mean = time.Duration(d.latencySumMs.Load()/total) * time.Millisecond
	}
	return Stats{Total: total, Errors: d.errorRequests.Load(), MeanLatency: mean}
}

// ProcessorStats reports the underlying ClaimProcessor's cumulative claim
// outcome counters, for SLO gauges that track evidence-source health
// rather than HTTP-surface health.
func (d *Driver) ProcessorStats() claimprocessor.Stats {
	return d.processor.Stats()
}

func (d *Driver) recordOutcome(duration time.Duration, failed bool) {
	d.totalRequests.Add(1)
	d.latencySumMs.Add(duration.Milliseconds())
	if failed {
		d.errorRequests.Add(1)
	}
}

// New constructs a Driver. keywords, threeLine, and channel are optional
// (nil skips that auxiliary output); channel is only consulted by
// FactCheckVideo.
func New(fetcher ports.TextFetcher, claims *claimextract.Pipeline, processor *claimprocessor.Processor, keywords ports.KeywordExtractor, threeLine ports.ThreeLineSummarizer, channel ports.ChannelTypeClassifier, cfg Config) *Driver {
	return &Driver{
		fetcher:   fetcher,
		claims:    claims,
		processor: processor,
		keywords:  keywords,
		threeLine: threeLine,
		channel:   channel,
		cfg:       cfg,
	}
}

// FactCheckArticle runs the full pipeline against an article URL.
func (d *Driver) FactCheckArticle(ctx context.Context, articleURL string) (entity.PipelineResult, error) {
	start := time.Now()
	ctx, span := tracing.GetTracer().Start(ctx, "pipeline.FactCheckArticle")
	defer span.End()

	if err := entity.ValidateSourceURL(articleURL, "article_url"); err != nil {
		metrics.RecordPipelineRequest("article", "invalid_url", time.Since(start), 0)
		d.recordOutcome(time.Since(start), true)
		return entity.PipelineResult{}, fmt.Errorf("%w: %v", ErrInvalidSourceURL, err)
	}

	body, err := d.fetcher.FetchArticleBody(ctx, articleURL)
	if err != nil || body == "" {
		metrics.RecordPipelineRequest("article", "source_unavailable", time.Since(start), 0)
		d.recordOutcome(time.Since(start), true)
		return entity.PipelineResult{}, fmt.Errorf("%w: %s", ErrSourceUnavailable, articleURL)
	}
	result, err := d.run(ctx, articleURL, "", body)
	metrics.RecordPipelineRequest("article", outcomeLabel(err), time.Since(start), result.AggregateConfidence)
	d.recordOutcome(time.Since(start), err != nil)
	return result, err
}

// FactCheckVideo runs the full pipeline against a video URL, additionally
// populating ChannelType/ChannelTypeReason when a classifier is wired.
func (d *Driver) FactCheckVideo(ctx context.Context, videoURL string) (entity.PipelineResult, error) {
	start := time.Now()
	ctx, span := tracing.GetTracer().Start(ctx, "pipeline.FactCheckVideo")
	defer span.End()

	if err := entity.ValidateSourceURL(videoURL, "video_url"); err != nil {
		metrics.RecordPipelineRequest("video", "invalid_url", time.Since(start), 0)
		d.recordOutcome(time.Since(start), true)
		return entity.PipelineResult{}, fmt.Errorf("%w: %v", ErrInvalidSourceURL, err)
	}

	transcript, err := d.fetcher.FetchTranscript(ctx, videoURL)
	if err != nil || transcript == "" {
		metrics.RecordPipelineRequest("video", "source_unavailable", time.Since(start), 0)
		d.recordOutcome(time.Since(start), true)
		return entity.PipelineResult{}, fmt.Errorf("%w: %s", ErrSourceUnavailable, videoURL)
	}

	result, err := d.run(ctx, videoURL, videoURL, transcript)
	if err != nil {
		metrics.RecordPipelineRequest("video", outcomeLabel(err), time.Since(start), 0)
		d.recordOutcome(time.Since(start), true)
		return result, err
	}

	if d.channel != nil {
		channelType, reason, err := d.channel.Classify(ctx, transcript)
		if err != nil {
			slog.Warn("pipeline: channel classification failed, omitting", slog.String("error", err.Error()))
		} else {
			result.ChannelType = channelType
			result.ChannelTypeReason = reason
		}
	}
	metrics.RecordPipelineRequest("video", "ok", time.Since(start), result.AggregateConfidence)
	d.recordOutcome(time.Since(start), false)
	return result, nil
}

// outcomeLabel maps a run error to its metrics outcome label.
func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return "extraction_failed"
}

func (d *Driver) run(ctx context.Context, sourceID, sourceURL, text string) (entity.PipelineResult, error) {
	claimSet, err := d.claims.Run(ctx, text)
	if err != nil {
		return entity.PipelineResult{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	keywords, threeLineSummary := d.runAuxiliary(ctx, text)

	if claimSet.Len() == 0 {
		return entity.PipelineResult{
			SourceID:         sourceID,
			SourceURL:        sourceURL,
			Summary:          buildSummary(nil),
			Keywords:         keywords,
			ThreeLineSummary: threeLineSummary,
			CreatedAt:        time.Now().UTC(),
		}, nil
	}

	results := d.processClaims(ctx, claimSet)

	return entity.PipelineResult{
		SourceID:            sourceID,
		SourceURL:           sourceURL,
		AggregateConfidence: aggregateConfidence(results),
		Summary:             buildSummary(results),
		Claims:              results,
		Keywords:            keywords,
		ThreeLineSummary:    threeLineSummary,
		CreatedAt:           time.Now().UTC(),
	}, nil
}

// runAuxiliary invokes keyword extraction and three-line summarization
// concurrently with claim processing's eventual fan-out; both are
// best-effort and never fail the request.
func (d *Driver) runAuxiliary(ctx context.Context, text string) ([]string, string) {
	var keywords []string
	var summary string

	g, gctx := errgroup.WithContext(ctx)
	if d.keywords != nil {
		g.Go(func() error {
			kw, err := d.keywords.ExtractKeywords(gctx, text)
			if err != nil {
				slog.Warn("pipeline: keyword extraction failed, omitting", slog.String("error", err.Error()))
				return nil
			}
			keywords = kw
			return nil
		})
	}
	if d.threeLine != nil {
		g.Go(func() error {
			s, err := d.threeLine.Summarize(gctx, text)
			if err != nil {
				slog.Warn("pipeline: three-line summarization failed, omitting", slog.String("error", err.Error()))
				return nil
			}
			summary = s
			return nil
		})
	}
	_ = g.Wait()

	return keywords, summary
}

// processClaims fans out one ClaimProcessor task per claim, bounded by
// MaxConcurrentClaims, preserving input order in the output slice.
func (d *Driver) processClaims(ctx context.Context, claimSet entity.ClaimSet) []entity.ClaimResult {
	results := make([]entity.ClaimResult, claimSet.Len())

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, d.cfg.MaxConcurrentClaims)

	for _, claim := range claimSet.Claims {
		claim := claim
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			results[claim.Position] = d.processor.Process(gctx, claim)
			return nil
		})
	}
	// ClaimProcessor.Process never returns a Go error (it recovers
	// internally into an error-tagged ClaimResult), so g.Wait only guards
	// the fan-out itself.
	_ = g.Wait()

	return results
}
