package titleindex

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"factseeker/internal/domain/entity"
)

type stubHandle struct {
	id      string
	ordinal int
	size    int
}

func (h *stubHandle) ID() string      { return h.id }
func (h *stubHandle) Ordinal() int    { return h.ordinal }
func (h *stubHandle) Size() int       { return h.size }
func (h *stubHandle) SearchTitles(queries [][]float32, k int) [][]entity.TitleMatch {
	return make([][]entity.TitleMatch, len(queries))
}

type stubLoader struct {
	mu        sync.Mutex
	loadCount map[string]int
	fail      map[string]bool
}

func newStubLoader() *stubLoader {
	return &stubLoader{loadCount: map[string]int{}, fail: map[string]bool{}}
}

func (l *stubLoader) Load(ctx context.Context, partitionID string) (entity.PartitionHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadCount[partitionID]++
	if l.fail[partitionID] {
		return nil, fmt.Errorf("simulated load failure for %s", partitionID)
	}
	ordinal := 0
	fmt.Sscanf(partitionID, "partition_%d", &ordinal)
	return &stubHandle{id: partitionID, ordinal: ordinal, size: 5}, nil
}

func TestPreload_OrdersDescendingOrdinal(t *testing.T) {
	loader := newStubLoader()
	r := New(loader, "9")

	if err := r.Preload(context.Background(), []string{"partition_1", "partition_9", "partition_3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	partitions := r.Partitions()
	if len(partitions) != 3 {
		t.Fatalf("expected 3 partitions, got %d", len(partitions))
	}
	wantOrder := []int{9, 3, 1}
	for i, p := range partitions {
		if p.Ordinal() != wantOrder[i] {
			t.Errorf("position %d: expected ordinal %d, got %d", i, wantOrder[i], p.Ordinal())
		}
	}
}

func TestPreload_SkipsFailedPartitions(t *testing.T) {
	loader := newStubLoader()
	loader.fail["partition_2"] = true
	r := New(loader, "9")

	if err := r.Preload(context.Background(), []string{"partition_1", "partition_2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	partitions := r.Partitions()
	if len(partitions) != 1 {
		t.Fatalf("expected 1 partition after skip, got %d", len(partitions))
	}
	if partitions[0].ID() != "partition_1" {
		t.Errorf("expected partition_1 to survive, got %s", partitions[0].ID())
	}
}

func TestReload_SwapsWithoutAffectingHeldSnapshot(t *testing.T) {
	loader := newStubLoader()
	r := New(loader, "9")
	if err := r.Preload(context.Background(), []string{"partition_1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	held := r.Partitions()

	if err := r.Reload(context.Background(), "partition_1"); err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}

	if len(held) != 1 || held[0].ID() != "partition_1" {
		t.Fatalf("held snapshot should be unaffected by reload, got %+v", held)
	}

	fresh := r.Partitions()
	if len(fresh) != 1 {
		t.Fatalf("expected 1 partition after reload, got %d", len(fresh))
	}
}

func TestReload_AppendsNewPartition(t *testing.T) {
	loader := newStubLoader()
	r := New(loader, "9")
	if err := r.Preload(context.Background(), []string{"partition_1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Reload(context.Background(), "partition_9"); err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}

	partitions := r.Partitions()
	if len(partitions) != 2 {
		t.Fatalf("expected 2 partitions, got %d", len(partitions))
	}
	if partitions[0].ID() != "partition_9" {
		t.Errorf("expected partition_9 first (descending ordinal), got %s", partitions[0].ID())
	}
}

func TestReload_FailureReturnsError(t *testing.T) {
	loader := newStubLoader()
	loader.fail["partition_5"] = true
	r := New(loader, "9")

	if err := r.Reload(context.Background(), "partition_5"); err == nil {
		t.Fatal("expected error for failed reload")
	}
}

func TestOverflowPartition(t *testing.T) {
	loader := newStubLoader()
	r := New(loader, "9")
	if err := r.Preload(context.Background(), []string{"partition_1", "partition_9"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, ok := r.OverflowPartition()
	if !ok {
		t.Fatal("expected overflow partition to be found")
	}
	if p.ID() != "partition_9" {
		t.Errorf("expected partition_9, got %s", p.ID())
	}
}

func TestOverflowPartition_NotLoaded(t *testing.T) {
	loader := newStubLoader()
	r := New(loader, "9")
	if err := r.Preload(context.Background(), []string{"partition_1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := r.OverflowPartition(); ok {
		t.Fatal("expected no overflow partition to be found")
	}
}
