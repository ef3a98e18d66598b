package ingest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"factseeker/internal/infra/ingest"
)

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Test Feed</title>
<item><title>Breaking: test event occurs</title><link>https://news.example.com/a</link></item>
<item><title>Second story of the day</title><link>https://news.example.com/b</link></item>
</channel></rss>`

type stubEmbedder struct{}

func (stubEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i := range docs {
		out[i] = []float32{float32(i), 0, 0}
	}
	return out, nil
}

func (stubEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return []float32{0, 0, 0}, nil
}

func TestCatalog_Partitions_FallsBackToConfiguredWhenEmpty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT DISTINCT partition_id").
		WillReturnRows(sqlmock.NewRows([]string{"partition_id"}))

	catalog := ingest.New(ingest.Config{
		PartitionCount: 3,
		OverflowDigit:  "9",
	}, db, stubEmbedder{}, nil)

	ids, err := catalog.Partitions(context.Background())
	if err != nil {
		t.Fatalf("Partitions err=%v", err)
	}
	want := []string{"partition_0", "partition_1", "partition_2", "partition_9"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestCatalog_OnReload_CrawlsAndWritesPartition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM title_vectors").WithArgs("partition_9").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO title_vectors").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO title_vectors").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	catalog := ingest.New(ingest.Config{
		FeedURLs:       []string{srv.URL},
		PartitionCount: 3,
		OverflowDigit:  "9",
	}, db, stubEmbedder{}, nil)

	if err := catalog.OnReload(context.Background(), "partition_9"); err != nil {
		t.Fatalf("OnReload err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalog_OnReload_EmptyFeedClearsPartition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`))
	}))
	defer srv.Close()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM title_vectors").WithArgs("partition_0").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	catalog := ingest.New(ingest.Config{
		FeedURLs:       []string{srv.URL},
		PartitionCount: 3,
		OverflowDigit:  "9",
	}, db, stubEmbedder{}, nil)

	if err := catalog.OnReload(context.Background(), "partition_0"); err != nil {
		t.Fatalf("OnReload err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
