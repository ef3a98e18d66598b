// Package titleindex holds the globally accessible, ordered set of loaded
// title-index partitions and provides atomic hot-swap on external reload
// notification.
package titleindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"factseeker/internal/domain/entity"
	"factseeker/internal/observability/metrics"
)

// ErrPartitionNotFound is returned by Reload when the loader cannot produce
// a partition for the given identifier.
var ErrPartitionNotFound = errors.New("titleindex: partition not found")

// ConfiguredPartitionIDs returns the canonical set of partition identifiers
// for a deployment: "partition_0".."partition_{count-1}" plus the
// designated overflow partition "partition_<overflowDigit>". Both
// ingest.Catalog (the writer) and a Registry's initial Preload (the
// reader) derive their partition set from this same naming scheme.
func ConfiguredPartitionIDs(count int, overflowDigit string) []string {
	ids := make([]string, 0, count+1)
	for i := 0; i < count; i++ {
		ids = append(ids, fmt.Sprintf("partition_%d", i))
	}
	ids = append(ids, fmt.Sprintf("partition_%s", overflowDigit))
	return ids
}

// Loader loads a single partition's title vectors from its backing store
// (local directory / object store), building an in-memory PartitionHandle.
// Concrete implementations live in internal/infra (e.g. a Postgres or
// object-store-backed loader wrapping infra/vectorindex).
type Loader interface {
	Load(ctx context.Context, partitionID string) (entity.PartitionHandle, error)
}

// Registry maintains the current snapshot of loaded partitions. Readers
// call Partitions to get a cheap, immutable reference to the current array;
// Preload and Reload are the only writer paths and always build a new array
// rather than mutating the one readers may be holding.
type Registry struct {
	loader        Loader
	overflowDigit string

	// writeMu serializes writer paths (Preload/Reload); readers never
	// block on it.
	writeMu sync.Mutex

	snapshot atomic.Pointer[[]entity.Partition]
}

// New constructs a Registry backed by loader. overflowDigit identifies the
// designated overflow partition by substring match on its identifier (the
// reference model uses "9").
func New(loader Loader, overflowDigit string) *Registry {
	r := &Registry{loader: loader, overflowDigit: overflowDigit}
	empty := []entity.Partition{}
	r.snapshot.Store(&empty)
	return r
}

// Preload loads every partition in ids and installs the initial snapshot,
// ordered by descending ordinal. A partition that fails to load is logged
// and skipped rather than aborting the whole preload; TitleIndexRegistry
// degrades to fewer partitions instead of failing startup.
func (r *Registry) Preload(ctx context.Context, ids []string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	loaded := make([]entity.Partition, 0, len(ids))
	for _, id := range ids {
		handle, err := r.loader.Load(ctx, id)
		if err != nil {
			slog.Warn("titleindex: partition preload failed, skipping",
				slog.String("partition_id", id),
				slog.String("error", err.Error()))
			continue
		}
		loaded = append(loaded, entity.Partition{Handle: handle})
	}

	sortDescendingOrdinal(loaded)
	r.snapshot.Store(&loaded)
	metrics.SetLoadedPartitions(len(loaded))

	slog.Info("titleindex: preload complete",
		slog.Int("requested", len(ids)),
		slog.Int("loaded", len(loaded)))
	return nil
}

// Partitions returns the current snapshot in descending-ordinal order. The
// returned slice is never mutated by the Registry after being published; it
// is safe for the caller to retain for the lifetime of one request.
func (r *Registry) Partitions() []entity.Partition {
	return *r.snapshot.Load()
}

// OverflowPartition returns the designated overflow partition from the
// current snapshot, if loaded.
func (r *Registry) OverflowPartition() (entity.Partition, bool) {
	for _, p := range r.Partitions() {
		if p.IsOverflow(r.overflowDigit) {
			return p, true
		}
	}
	return entity.Partition{}, false
}

// Reload atomically replaces the partition identified by partitionID: it
// loads a fresh handle, builds a new snapshot array with that entry
// replaced (or appended, if not previously loaded), sorts it, and publishes
// it with a single atomic store. Concurrent readers holding an earlier
// snapshot reference are unaffected; no reader ever observes a half-loaded
// partition.
func (r *Registry) Reload(ctx context.Context, partitionID string) error {
	handle, err := r.loader.Load(ctx, partitionID)
	if err != nil {
		metrics.RecordPartitionReload(err)
		return fmt.Errorf("titleindex: reload %s: %w", partitionID, err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current := *r.snapshot.Load()
	next := make([]entity.Partition, 0, len(current)+1)
	replaced := false
	for _, p := range current {
		if p.ID() == partitionID {
			next = append(next, entity.Partition{Handle: handle})
			replaced = true
			continue
		}
		next = append(next, p)
	}
	if !replaced {
		next = append(next, entity.Partition{Handle: handle})
	}

	sortDescendingOrdinal(next)
	r.snapshot.Store(&next)
	metrics.SetLoadedPartitions(len(next))
	metrics.RecordPartitionReload(nil)

	slog.Info("titleindex: partition reloaded",
		slog.String("partition_id", partitionID),
		slog.Int("vector_count", handle.Size()))
	return nil
}

func sortDescendingOrdinal(partitions []entity.Partition) {
	sort.SliceStable(partitions, func(i, j int) bool {
		return partitions[i].Ordinal() > partitions[j].Ordinal()
	})
}
