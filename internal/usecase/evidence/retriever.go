// Package evidence implements EvidenceRetriever: given a Claim, it returns
// up to MaxArticlesPerClaim EvidenceCandidates matched through a two-stage
// search+k-NN pipeline over the loaded title partitions, then materialized
// into body snippets via ArticleIndexCache.
package evidence

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"factseeker/internal/domain/entity"
	"factseeker/internal/resilience/retry"
	"factseeker/internal/usecase/articleindex"
	"factseeker/internal/usecase/ports"
	"factseeker/internal/usecase/titleindex"
	"factseeker/internal/utils/text"
)

const (
	maxSearchResults   = 10
	titleKNN           = 3
	fallbackKNN        = 5
	embedRetryAttempts = 2
	embedRetryInitial  = 500 * time.Millisecond
)

// Config bounds EvidenceRetriever's output and k-NN matching.
type Config struct {
	MaxArticlesPerClaim      int
	DistanceThreshold        float32
	PartitionStopHits        int
	MaxConcurrentBodyFetches int
}

// Retriever implements the two-stage retrieval+materialization pipeline.
type Retriever struct {
	summarizer   ports.QuerySummarizer
	embedder     ports.Embedder
	partitions   *titleindex.Registry
	articles     *articleindex.Cache
	cfg          Config
	embedRetry   retry.Config
}

// New constructs a Retriever.
func New(summarizer ports.QuerySummarizer, embedder ports.Embedder, partitions *titleindex.Registry, articles *articleindex.Cache, cfg Config) *Retriever {
	return &Retriever{
		summarizer: summarizer,
		embedder:   embedder,
		partitions: partitions,
		articles:   articles,
		cfg:        cfg,
		embedRetry: retry.Config{
			MaxAttempts:    embedRetryAttempts,
			InitialDelay:   embedRetryInitial,
			MaxDelay:       2 * embedRetryInitial,
			Multiplier:     2.0,
			JitterFraction: 0,
		},
	}
}

// PartitionFilter restricts which loaded partitions a Retrieve call
// considers; nil means "all loaded partitions."
type PartitionFilter func(entity.Partition) bool

// OverflowOnly restricts retrieval to the designated overflow partition.
func OverflowOnly(overflowDigit string) PartitionFilter {
	return func(p entity.Partition) bool { return p.IsOverflow(overflowDigit) }
}

type titleMeta struct {
	cleaned string
	raw     string
}

// Retrieve runs the full retrieval pipeline for one claim against the given
// SearchProvider, restricted to partitions for which filter returns true
// (nil filter = all partitions), excluding any URL present in exclude.
func (r *Retriever) Retrieve(ctx context.Context, claim entity.Claim, provider ports.SearchProvider, exclude map[string]bool, filter PartitionFilter) ([]entity.EvidenceCandidate, error) {
	query := claim.Text
	if r.summarizer != nil {
		if summarized, err := r.summarizer.Summarize(ctx, claim.Text); err == nil && summarized != "" {
			query = summarized
		} else if err != nil {
			slog.Warn("evidence: query summarization failed, using claim text verbatim", slog.String("error", err.Error()))
		}
	}

	results, err := provider.Search(ctx, query)
	if err != nil {
		return nil, nil
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	if len(results) == 0 {
		return nil, nil
	}

	rawTitles := make([]string, len(results))
	cleanedTitles := make([]string, len(results))
	for i, hit := range results {
		rawTitles[i] = hit.Title
		cleanedTitles[i] = text.CleanTitle(hit.Title)
	}

	embeddings, err := r.embedTitlesWithRetry(ctx, cleanedTitles)
	if err != nil {
		return nil, nil
	}

	partitions := r.filteredPartitions(filter)

	selected, meta := r.matchTitles(embeddings, partitions, cleanedTitles, rawTitles, exclude)
	if len(selected) == 0 {
		selected, meta = r.fallbackMatch(ctx, query, partitions, exclude)
	}

	return r.materialize(ctx, selected, meta), nil
}

func (r *Retriever) embedTitlesWithRetry(ctx context.Context, titles []string) ([][]float32, error) {
	var embeddings [][]float32
	err := retry.WithBackoff(ctx, r.embedRetry, func() error {
		var embedErr error
		embeddings, embedErr = r.embedder.EmbedDocuments(ctx, titles)
		return embedErr
	})
	return embeddings, err
}

func (r *Retriever) filteredPartitions(filter PartitionFilter) []entity.Partition {
	all := r.partitions.Partitions()
	if filter == nil {
		return all
	}
	out := make([]entity.Partition, 0, len(all))
	for _, p := range all {
		if filter(p) {
			out = append(out, p)
		}
	}
	return out
}

// matchTitles runs Stage C: per-position nearest-acceptable-URL selection,
// iterating partitions newest-first with early stop once a partition
// contributes PartitionStopHits new URLs.
func (r *Retriever) matchTitles(embeddings [][]float32, partitions []entity.Partition, cleanedTitles, rawTitles []string, exclude map[string]bool) ([]string, map[string]titleMeta) {
	selected := make([]string, 0, r.cfg.MaxArticlesPerClaim)
	selectedSet := map[string]bool{}
	meta := map[string]titleMeta{}

	for _, p := range partitions {
		if p.Handle.Size() == 0 {
			continue
		}
		matches := p.Handle.SearchTitles(embeddings, titleKNN)
		newThisPartition := 0

		for j, candidates := range matches {
			if len(selected) >= r.cfg.MaxArticlesPerClaim {
				return selected, meta
			}
			url := nearestAcceptable(candidates, r.cfg.DistanceThreshold, selectedSet, exclude)
			if url == "" {
				continue
			}
			selected = append(selected, url)
			selectedSet[url] = true
			meta[url] = titleMeta{cleaned: cleanedTitles[j], raw: rawTitles[j]}
			newThisPartition++
		}

		if newThisPartition >= r.cfg.PartitionStopHits {
			break
		}
	}

	return selected, meta
}

func nearestAcceptable(candidates []entity.TitleMatch, threshold float32, selected, exclude map[string]bool) string {
	for _, m := range candidates {
		if m.Distance >= threshold {
			continue
		}
		if selected[m.Entry.URL] || exclude[m.Entry.URL] {
			continue
		}
		return m.Entry.URL
	}
	return ""
}

// fallbackMatch implements the Stage-C fallback: embed the query as a
// single vector, run k=5 per partition, keep URLs under the threshold,
// sort ascending by distance, and truncate to MaxArticlesPerClaim.
func (r *Retriever) fallbackMatch(ctx context.Context, query string, partitions []entity.Partition, exclude map[string]bool) ([]string, map[string]titleMeta) {
	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, nil
	}

	type scored struct {
		url      string
		distance float32
	}
	var candidates []scored
	seen := map[string]bool{}

	for _, p := range partitions {
		if p.Handle.Size() == 0 {
			continue
		}
		matches := p.Handle.SearchTitles([][]float32{queryVec}, fallbackKNN)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches[0] {
			if m.Distance >= r.cfg.DistanceThreshold {
				continue
			}
			if seen[m.Entry.URL] || exclude[m.Entry.URL] {
				continue
			}
			seen[m.Entry.URL] = true
			candidates = append(candidates, scored{url: m.Entry.URL, distance: m.Distance})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })

	if len(candidates) > r.cfg.MaxArticlesPerClaim {
		candidates = candidates[:r.cfg.MaxArticlesPerClaim]
	}

	selected := make([]string, len(candidates))
	meta := map[string]titleMeta{}
	for i, c := range candidates {
		selected[i] = c.url
		meta[c.url] = titleMeta{}
	}
	return selected, meta
}

// materialize runs Stage D: bounded-concurrency ArticleIndexCache lookups,
// preserving selection order in the output.
func (r *Retriever) materialize(ctx context.Context, urls []string, meta map[string]titleMeta) []entity.EvidenceCandidate {
	if len(urls) == 0 {
		return nil
	}

	candidates := make([]entity.EvidenceCandidate, len(urls))
	found := make([]bool, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.cfg.MaxConcurrentBodyFetches)

	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			idx, ok, err := r.articles.Get(gctx, url)
			if err != nil {
				slog.Warn("evidence: article materialization failed, proceeding with fewer candidates",
					slog.String("url", url), slog.String("error", err.Error()))
				return nil
			}
			if !ok {
				return nil
			}

			m := meta[url]
			candidates[i] = entity.EvidenceCandidate{
				URL:             url,
				BodySnippet:     idx.BodyText,
				MatchedTitle:    m.cleaned,
				RawMatchedTitle: m.raw,
			}
			found[i] = true
			return nil
		})
	}
	// Errors are swallowed inside each goroutine (FetchFailed is recovered
	// locally); g.Wait only guards the fan-out itself.
	_ = g.Wait()

	out := make([]entity.EvidenceCandidate, 0, len(urls))
	for i, ok := range found {
		if ok {
			out = append(out, candidates[i])
		}
	}
	return out
}
