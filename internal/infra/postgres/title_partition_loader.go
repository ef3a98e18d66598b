// Package postgres implements titleindex.Loader over a pgvector-backed
// Postgres table, generalizing an article-embedding persistence layer to
// title vectors.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/pgvector/pgvector-go"

	"factseeker/internal/domain/entity"
	"factseeker/internal/infra/vectorindex"
	"factseeker/internal/resilience/circuitbreaker"
)

// TitlePartitionLoader implements titleindex.Loader, loading one partition's
// title vectors from the title_vectors table. Queries run behind a circuit
// breaker so a struggling Postgres instance fails partition reloads fast
// instead of piling up goroutines on a 30-minute-cron reload cycle.
type TitlePartitionLoader struct {
	db *circuitbreaker.DBCircuitBreaker
}

// NewTitlePartitionLoader constructs a TitlePartitionLoader over db.
func NewTitlePartitionLoader(db *sql.DB) *TitlePartitionLoader {
	return &TitlePartitionLoader{db: circuitbreaker.NewDBCircuitBreaker(db)}
}

// Load reads every title vector belonging to partitionID and builds an
// in-memory vectorindex.Index for it.
func (l *TitlePartitionLoader) Load(ctx context.Context, partitionID string) (entity.PartitionHandle, error) {
	const query = `
SELECT title, url, embedding
FROM title_vectors
WHERE partition_id = $1`

	rows, err := l.db.QueryContext(ctx, query, partitionID)
	if err != nil {
		return nil, fmt.Errorf("load partition %s: %w", partitionID, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []entity.TitleEntry
	var vectors [][]float32
	for rows.Next() {
		var entry entity.TitleEntry
		var vector pgvector.Vector
		if err := rows.Scan(&entry.Title, &entry.URL, &vector); err != nil {
			return nil, fmt.Errorf("load partition %s: scan: %w", partitionID, err)
		}
		entries = append(entries, entry)
		vectors = append(vectors, vector.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load partition %s: %w", partitionID, err)
	}

	ordinal := partitionOrdinal(partitionID)
	return vectorindex.New(partitionID, ordinal, entries, vectors), nil
}

// partitionOrdinal extracts the trailing integer from a partition
// identifier like "partition_3", defaulting to 0 when absent.
func partitionOrdinal(partitionID string) int {
	idx := strings.LastIndexByte(partitionID, '_')
	if idx < 0 || idx+1 >= len(partitionID) {
		return 0
	}
	n, err := strconv.Atoi(partitionID[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
