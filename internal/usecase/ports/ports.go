// Package ports defines the collaborator interfaces the claim-to-evidence
// core consumes. Concrete adapters live under internal/infra; this package
// fixes only the contracts, keeping usecase-level interfaces separate from
// infra-level implementations.
package ports

import "context"

// TextFetcher acquires source text: a video transcript or an article body.
// HTML fetch/body extraction and audio transcription are out of the core's
// scope; the core only depends on this interface.
type TextFetcher interface {
	// FetchArticleBody returns cleaned plain text for an article URL, or
	// empty string if the body could not be obtained.
	FetchArticleBody(ctx context.Context, url string) (string, error)

	// FetchTranscript returns the transcript text for a video URL, or
	// empty string if unavailable.
	FetchTranscript(ctx context.Context, videoURL string) (string, error)
}

// SearchResult is a single raw hit returned by a SearchProvider.
type SearchResult struct {
	Title   string
	Link    string
	Snippet string
}

// SearchProvider queries an external web-search backend. Two independently
// configured instances are wired into the core: primary and secondary.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// Embedder produces vector embeddings for titles, article bodies, and
// search queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Judge evaluates a single (claim, body) pair and returns the raw
// structured verdict text matching the line-label grammar the core's
// parser consumes. The core owns grammar parsing; Judge owns only the
// language-model call.
type Judge interface {
	Evaluate(ctx context.Context, claim, body string) (string, error)
}

// ClaimExtractor extracts a raw, line-delimited list of candidate claim
// strings from source text.
type ClaimExtractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}

// ClaimReducer collapses near-duplicate claims, returning raw text the
// core parses as a JSON array first, falling back to line splitting.
type ClaimReducer interface {
	Reduce(ctx context.Context, claims []string) (string, error)
}

// QuerySummarizer summarizes a claim into a short search query. Used by
// EvidenceRetriever's stage A; on failure callers fall back to the claim
// text verbatim.
type QuerySummarizer interface {
	Summarize(ctx context.Context, claim string) (string, error)
}

// KeywordExtractor produces the auxiliary keyword-extraction output.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}

// ThreeLineSummarizer produces the auxiliary three-line-summary output.
type ThreeLineSummarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// ChannelTypeClassifier classifies a video transcript's channel type,
// supplementing the video pipeline variant.
type ChannelTypeClassifier interface {
	Classify(ctx context.Context, transcript string) (channelType, reason string, err error)
}

// PartitionProvider is the external collaborator that owns partition
// lifecycle: loading partitions on startup and notifying the core when one
// should be reloaded. The title-index builder and the object-store watcher
// that triggers reloads are out of the core's scope.
type PartitionProvider interface {
	// Partitions returns the full set of partition identifiers currently
	// available in the backing store.
	Partitions(ctx context.Context) ([]string, error)

	// OnReload is invoked by the external watcher when partitionID should
	// be reloaded; the core re-downloads and atomically swaps it in.
	OnReload(ctx context.Context, partitionID string) error
}

// ObjectStore is the tiered-cache object-store collaborator used by
// ArticleIndexCache and the title-partition loader. Key prefixes are
// fixed: "article_faiss_cache/<hash(url)>/" and
// "<configured>/partition_<id>/".
type ObjectStore interface {
	// Get downloads all objects under keyPrefix, returning nil, false, nil
	// if nothing exists under that prefix.
	Get(ctx context.Context, keyPrefix string) (map[string][]byte, bool, error)

	// Put uploads objects under keyPrefix. Callers treat failures as
	// best-effort: logged, never propagated as a request failure.
	Put(ctx context.Context, keyPrefix string, objects map[string][]byte) error
}
