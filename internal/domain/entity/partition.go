package entity

// TitleEntry is a single title owned by a Partition; never mutated after
// load.
type TitleEntry struct {
	Title string
	URL   string
}

// PartitionHandle is a loaded, queryable title nearest-neighbor index.
// Concrete k-NN search is implemented by infra/vectorindex; this interface
// is what TitleIndexRegistry hands out to readers.
type PartitionHandle interface {
	// ID is the partition identifier, e.g. "partition_3" or "partition_9".
	ID() string

	// Ordinal is the numeric suffix of ID, used for descending-ordinal
	// iteration order. Higher ordinals are newer.
	Ordinal() int

	// Size is the number of title vectors loaded into the partition.
	Size() int

	// SearchTitles runs k-NN over the partition's title vectors for each
	// query vector, returning the k nearest TitleEntry/distance pairs per
	// query, in query order.
	SearchTitles(queries [][]float32, k int) [][]TitleMatch
}

// TitleMatch is one nearest-neighbor result: a TitleEntry and its L2
// distance from the query vector.
type TitleMatch struct {
	Entry    TitleEntry
	Distance float32
}

// Partition is the TitleIndexRegistry's record of a loaded partition: its
// identifier, ordinal, and in-memory handle.
type Partition struct {
	Handle PartitionHandle
}

// ID delegates to the underlying handle.
func (p Partition) ID() string { return p.Handle.ID() }

// Ordinal delegates to the underlying handle.
func (p Partition) Ordinal() int { return p.Handle.Ordinal() }

// IsOverflow reports whether this partition is the designated overflow
// partition, identified by its identifier containing the configured
// overflow digit (the reference model uses "9").
func (p Partition) IsOverflow(overflowDigit string) bool {
	return containsDigit(p.ID(), overflowDigit)
}

func containsDigit(id, digit string) bool {
	for i := 0; i+len(digit) <= len(id); i++ {
		if id[i:i+len(digit)] == digit {
			return true
		}
	}
	return false
}
