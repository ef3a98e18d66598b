// Package vectorindex implements a brute-force L2 nearest-neighbor index
// over title vectors, the in-memory counterpart to a loaded partition.
//
// Partitions are small enough (one news catalog partition) that a linear
// scan is the right trade, matching FAISS's own IndexFlatL2 — itself an
// un-indexed brute-force L2 scan — rather than introducing an unneeded
// approximate index. See DESIGN.md for the stdlib-only justification.
package vectorindex

import (
	"sort"

	"factseeker/internal/domain/entity"
)

// Index is a fixed, read-only set of title vectors searchable by k-nearest
// neighbor under L2 distance. It implements entity.PartitionHandle's
// SearchTitles contract but is built and owned by the partition loader.
type Index struct {
	id      string
	ordinal int
	entries []entity.TitleEntry
	vectors [][]float32
}

// New builds an Index from parallel entries/vectors slices. len(entries)
// must equal len(vectors); callers (the partition loader) guarantee this.
func New(id string, ordinal int, entries []entity.TitleEntry, vectors [][]float32) *Index {
	return &Index{id: id, ordinal: ordinal, entries: entries, vectors: vectors}
}

// ID returns the partition identifier.
func (idx *Index) ID() string { return idx.id }

// Ordinal returns the partition's numeric ordinal.
func (idx *Index) Ordinal() int { return idx.ordinal }

// Size returns the number of vectors loaded.
func (idx *Index) Size() int { return len(idx.vectors) }

// SearchTitles runs k-NN for each query vector against the index's title
// vectors, returning the k nearest TitleMatch values per query in
// ascending-distance order. A partition with zero vectors returns nil
// matches for every query (callers treat this as "skipped").
func (idx *Index) SearchTitles(queries [][]float32, k int) [][]entity.TitleMatch {
	results := make([][]entity.TitleMatch, len(queries))
	if len(idx.vectors) == 0 {
		return results
	}

	for qi, q := range queries {
		results[qi] = idx.searchOne(q, k)
	}
	return results
}

func (idx *Index) searchOne(query []float32, k int) []entity.TitleMatch {
	matches := make([]entity.TitleMatch, 0, len(idx.vectors))
	for i, v := range idx.vectors {
		matches = append(matches, entity.TitleMatch{
			Entry:    idx.entries[i],
			Distance: l2Distance(query, v),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// l2Distance returns the squared Euclidean distance between two
// equal-length vectors, matching FAISS's IndexFlatL2, which returns the
// squared distance rather than its square root. Mismatched lengths are
// treated as maximally distant rather than panicking, since a malformed
// embedding should not crash a retrieval.
func l2Distance(a, b []float32) float32 {
	if len(a) != len(b) {
		return float32(1 << 30)
	}
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
