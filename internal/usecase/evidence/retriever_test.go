package evidence

import (
	"context"
	"errors"
	"testing"

	"factseeker/internal/domain/entity"
	"factseeker/internal/usecase/articleindex"
	"factseeker/internal/usecase/ports"
	"factseeker/internal/usecase/titleindex"
)

type stubSearchProvider struct {
	results []ports.SearchResult
	err     error
}

func (s stubSearchProvider) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	return s.results, s.err
}

type stubEmbedder struct {
	docVectors map[string][]float32
	queryVec   []float32
}

func (e stubEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i, d := range docs {
		v, ok := e.docVectors[d]
		if !ok {
			v = []float32{0, 0}
		}
		out[i] = v
	}
	return out, nil
}

func (e stubEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return e.queryVec, nil
}

type stubHandle struct {
	id      string
	ordinal int
	entries []entity.TitleEntry
	vectors [][]float32
}

func (h *stubHandle) ID() string   { return h.id }
func (h *stubHandle) Ordinal() int { return h.ordinal }
func (h *stubHandle) Size() int    { return len(h.vectors) }
func (h *stubHandle) SearchTitles(queries [][]float32, k int) [][]entity.TitleMatch {
	results := make([][]entity.TitleMatch, len(queries))
	for qi, q := range queries {
		var matches []entity.TitleMatch
		for i, v := range h.vectors {
			matches = append(matches, entity.TitleMatch{Entry: h.entries[i], Distance: dist(q, v)})
		}
		// simple insertion sort; test vectors are tiny
		for i := 1; i < len(matches); i++ {
			for j := i; j > 0 && matches[j].Distance < matches[j-1].Distance; j-- {
				matches[j], matches[j-1] = matches[j-1], matches[j]
			}
		}
		if len(matches) > k {
			matches = matches[:k]
		}
		results[qi] = matches
	}
	return results
}

func dist(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	if sum < 0 {
		return 0
	}
	return sum
}

type stubLoader struct{ handles map[string]*stubHandle }

func (l stubLoader) Load(ctx context.Context, partitionID string) (entity.PartitionHandle, error) {
	h, ok := l.handles[partitionID]
	if !ok {
		return nil, errors.New("not found")
	}
	return h, nil
}

type passthroughFetcher struct{ body string }

func (f passthroughFetcher) FetchArticleBody(ctx context.Context, url string) (string, error) {
	return f.body, nil
}
func (f passthroughFetcher) FetchTranscript(ctx context.Context, videoURL string) (string, error) {
	return "", nil
}

type passthroughEmbedder struct{}

func (passthroughEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i := range docs {
		out[i] = []float32{0}
	}
	return out, nil
}
func (passthroughEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return []float32{0}, nil
}

func longBody() string {
	s := ""
	for i := 0; i < 250; i++ {
		s += "x"
	}
	return s
}

func newTestRetriever(t *testing.T, handles map[string]*stubHandle, docVectors map[string][]float32, fallbackVec []float32) *Retriever {
	t.Helper()
	registry := titleindex.New(stubLoader{handles: handles}, "9")
	ids := make([]string, 0, len(handles))
	for id := range handles {
		ids = append(ids, id)
	}
	if err := registry.Preload(context.Background(), ids); err != nil {
		t.Fatalf("preload failed: %v", err)
	}

	cache := articleindex.New(passthroughFetcher{body: longBody()}, passthroughEmbedder{}, nil, t.TempDir())

	return New(nil, stubEmbedder{docVectors: docVectors, queryVec: fallbackVec}, registry, cache, Config{
		MaxArticlesPerClaim:      10,
		DistanceThreshold:        0.8,
		PartitionStopHits:        1,
		MaxConcurrentBodyFetches: 4,
	})
}

func TestRetrieve_EmptySearchResultsReturnEmptyImmediately(t *testing.T) {
	r := newTestRetriever(t, map[string]*stubHandle{
		"partition_1": {id: "partition_1", ordinal: 1},
	}, nil, nil)

	candidates, err := r.Retrieve(context.Background(), entity.Claim{Text: "claim"}, stubSearchProvider{}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestRetrieve_MatchesNearestAcceptableTitle(t *testing.T) {
	handles := map[string]*stubHandle{
		"partition_1": {
			id: "partition_1", ordinal: 1,
			entries: []entity.TitleEntry{{Title: "t1", URL: "https://example.com/1"}},
			vectors: [][]float32{{0}},
		},
	}
	provider := stubSearchProvider{results: []ports.SearchResult{
		{Title: "Breaking News", Link: "https://search.example.com/irrelevant"},
	}}
	r := newTestRetriever(t, handles, map[string][]float32{"Breaking News": {0}}, nil)

	candidates, err := r.Retrieve(context.Background(), entity.Claim{Text: "claim"}, provider, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].URL != "https://example.com/1" {
		t.Errorf("expected matched URL from title index, got %q", candidates[0].URL)
	}
}

func TestRetrieve_ExcludesURLsFromPriorPass(t *testing.T) {
	handles := map[string]*stubHandle{
		"partition_1": {
			id: "partition_1", ordinal: 1,
			entries: []entity.TitleEntry{{Title: "t1", URL: "https://example.com/1"}},
			vectors: [][]float32{{0}},
		},
	}
	provider := stubSearchProvider{results: []ports.SearchResult{
		{Title: "Breaking News", Link: "https://search.example.com/irrelevant"},
	}}
	r := newTestRetriever(t, handles, map[string][]float32{"Breaking News": {0}}, nil)

	exclude := map[string]bool{"https://example.com/1": true}
	candidates, err := r.Retrieve(context.Background(), entity.Claim{Text: "claim"}, provider, exclude, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected excluded URL to be skipped, got %d candidates", len(candidates))
	}
}

func TestRetrieve_FallsBackWhenNoStageC(t *testing.T) {
	handles := map[string]*stubHandle{
		"partition_1": {
			id: "partition_1", ordinal: 1,
			entries: []entity.TitleEntry{{Title: "t1", URL: "https://example.com/1"}},
			vectors: [][]float32{{5}},
		},
	}
	// Title vector far from the doc embedding (distance exceeds threshold)
	// but the query embedding lands on top of the title vector, so the
	// fallback single-vector pass should find it.
	provider := stubSearchProvider{results: []ports.SearchResult{
		{Title: "Unrelated", Link: "https://search.example.com/irrelevant"},
	}}
	r := newTestRetriever(t, handles, map[string][]float32{"Unrelated": {100}}, []float32{5})

	candidates, err := r.Retrieve(context.Background(), entity.Claim{Text: "claim"}, provider, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected fallback to find 1 candidate, got %d", len(candidates))
	}
}

func TestRetrieve_OverflowOnlyFilterRestrictsPartitions(t *testing.T) {
	handles := map[string]*stubHandle{
		"partition_1": {
			id: "partition_1", ordinal: 1,
			entries: []entity.TitleEntry{{Title: "t1", URL: "https://example.com/1"}},
			vectors: [][]float32{{0}},
		},
		"partition_9": {
			id: "partition_9", ordinal: 9,
			entries: []entity.TitleEntry{{Title: "t9", URL: "https://example.com/9"}},
			vectors: [][]float32{{0}},
		},
	}
	provider := stubSearchProvider{results: []ports.SearchResult{
		{Title: "Breaking News", Link: "https://search.example.com/irrelevant"},
	}}
	r := newTestRetriever(t, handles, map[string][]float32{"Breaking News": {0}}, nil)

	candidates, err := r.Retrieve(context.Background(), entity.Claim{Text: "claim"}, provider, nil, OverflowOnly("9"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].URL != "https://example.com/9" {
		t.Fatalf("expected overflow-only match, got %+v", candidates)
	}
}
