package db

import "database/sql"

// MigrateUp creates the schema backing the title-index partitions: the
// pgvector extension and the title_vectors table ingest.Catalog writes to
// and postgres.TitlePartitionLoader reads from, generalized from the
// teacher's article_embeddings migration (same IF NOT EXISTS + ivfflat
// idiom, applied to per-partition title vectors instead of per-article
// embeddings).
func MigrateUp(db *sql.DB) error {
	// pgvector拡張を有効化
	// エラーを無視(既に存在する場合やスーパーユーザー権限がない場合)
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS title_vectors (
    id           SERIAL PRIMARY KEY,
    partition_id TEXT NOT NULL,
    title        TEXT NOT NULL,
    url          TEXT NOT NULL,
    embedding    vector(1536) NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_title_vectors_partition_id ON title_vectors(partition_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_title_vectors_partition_url ON title_vectors(partition_id, url)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// IVFFlat 近似最近傍インデックス。pgvector拡張がない場合にエラーとなるため無視。
	// lists=100 は <1M レコードに適した値
	_, _ = db.Exec(`
CREATE INDEX IF NOT EXISTS idx_title_vectors_embedding
    ON title_vectors USING ivfflat (embedding vector_l2_ops)
    WITH (lists = 100)`)

	return nil
}

// MigrateDown rolls back the title-vector schema. Use with caution: this
// deletes all ingested title data.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_title_vectors_embedding`,
		`DROP INDEX IF EXISTS idx_title_vectors_partition_url`,
		`DROP INDEX IF EXISTS idx_title_vectors_partition_id`,
		`DROP TABLE IF EXISTS title_vectors CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
