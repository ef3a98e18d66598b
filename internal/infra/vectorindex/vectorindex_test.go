package vectorindex

import (
	"testing"

	"factseeker/internal/domain/entity"
)

func TestSearchTitles_OrdersByAscendingDistance(t *testing.T) {
	entries := []entity.TitleEntry{
		{Title: "far", URL: "https://example.com/far"},
		{Title: "near", URL: "https://example.com/near"},
		{Title: "mid", URL: "https://example.com/mid"},
	}
	vectors := [][]float32{
		{10, 10},
		{0, 0.1},
		{1, 1},
	}
	idx := New("partition_1", 1, entries, vectors)

	results := idx.SearchTitles([][]float32{{0, 0}}, 2)
	if len(results) != 1 {
		t.Fatalf("expected 1 query result, got %d", len(results))
	}
	matches := results[0]
	if len(matches) != 2 {
		t.Fatalf("expected k=2 matches, got %d", len(matches))
	}
	if matches[0].Entry.URL != "https://example.com/near" {
		t.Errorf("expected nearest to be 'near', got %q", matches[0].Entry.URL)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Errorf("expected ascending distance order, got %v then %v", matches[0].Distance, matches[1].Distance)
	}
}

func TestSearchTitles_EmptyIndexReturnsNoMatches(t *testing.T) {
	idx := New("partition_9", 9, nil, nil)

	results := idx.SearchTitles([][]float32{{1, 2, 3}}, 3)
	if len(results) != 1 || len(results[0]) != 0 {
		t.Fatalf("expected one empty match slice, got %+v", results)
	}
	if idx.Size() != 0 {
		t.Errorf("expected Size()=0, got %d", idx.Size())
	}
}

func TestSearchTitles_MismatchedDimensionsTreatedAsDistant(t *testing.T) {
	entries := []entity.TitleEntry{{Title: "a", URL: "u1"}}
	vectors := [][]float32{{1, 2, 3}}
	idx := New("partition_2", 2, entries, vectors)

	results := idx.SearchTitles([][]float32{{1, 2}}, 1)
	if len(results[0]) != 1 {
		t.Fatalf("expected 1 match, got %d", len(results[0]))
	}
	if results[0][0].Distance <= 0 {
		t.Errorf("expected a large positive distance for mismatched dims, got %v", results[0][0].Distance)
	}
}
