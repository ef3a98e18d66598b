package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"factseeker/internal/config"
	hhttp "factseeker/internal/handler/http/respond"
	"factseeker/internal/infra/db"
	"factseeker/internal/infra/ingest"
	"factseeker/internal/infra/llm"
	"factseeker/internal/infra/objectstore"
	workerPkg "factseeker/internal/infra/worker"
	"factseeker/internal/observability/logging"
	"factseeker/internal/usecase/ports"
)

func waitForMigrations(logger *slog.Logger, database *sql.DB) {
	const probe = "SELECT 1 FROM title_vectors LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := database.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}

	pipelineConfig, err := config.LoadPipelineConfig()
	if err != nil {
		logger.Error("failed to load pipeline configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ingestConfig, err := config.LoadIngestConfig()
	if err != nil {
		logger.Error("failed to load ingest configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("ingest configuration loaded",
		slog.Int("feed_count", len(ingestConfig.FeedURLs)),
		slog.Int("partition_count", ingestConfig.PartitionCount),
		slog.String("reload_schedule", ingestConfig.ReloadSchedule))

	catalog := setupCatalog(ctx, logger, database, pipelineConfig, ingestConfig)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	startCronWorker(logger, catalog, ingestConfig, workerConfig, workerMetrics, healthServer)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and waits for migrations to complete.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	return database
}

// setupCatalog wires the title-catalog ingestion job: an OpenAI embedder
// and, when S3_BUCKET_NAME is configured, an S3-backed object store mirror.
func setupCatalog(ctx context.Context, logger *slog.Logger, database *sql.DB, pipelineCfg *config.PipelineConfig, ingestCfg *config.IngestConfig) *ingest.Catalog {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Error("OPENAI_API_KEY is required for title embedding")
		os.Exit(1)
	}
	embedder := llm.NewEmbedder(apiKey, pipelineCfg.Timeouts.Embedding)

	var store *objectstore.Store
	if pipelineCfg.ObjectStoreBucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Warn("failed to load AWS configuration, object-store mirroring disabled", slog.Any("error", err))
		} else {
			store = objectstore.New(s3.NewFromConfig(awsCfg), pipelineCfg.ObjectStoreBucket, pipelineCfg.Timeouts.ObjectStore)
			logger.Info("object store mirroring enabled", slog.String("bucket", pipelineCfg.ObjectStoreBucket))
		}
	} else {
		logger.Info("object store mirroring disabled (S3_BUCKET_NAME not set)")
	}

	// objStore stays a true nil ports.ObjectStore (not a non-nil interface
	// wrapping a nil *objectstore.Store) when mirroring is disabled.
	var objStore ports.ObjectStore
	if store != nil {
		objStore = store
	}

	return ingest.New(ingest.Config{
		FeedURLs:             ingestCfg.FeedURLs,
		PartitionCount:       ingestCfg.PartitionCount,
		OverflowDigit:        pipelineCfg.OverflowPartitionDigit,
		ObjectStoreKeyPrefix: ingestCfg.ObjectStoreKeyPrefix,
	}, database, embedder, objStore)
}

// startCronWorker schedules the periodic title-catalog re-ingestion job:
// every tick, every configured partition (including the overflow
// partition) is refreshed in turn. The schedule is interpreted in
// workerCfg.Timezone, matching the newsroom this worker serves.
func startCronWorker(logger *slog.Logger, catalog *ingest.Catalog, ingestCfg *config.IngestConfig, workerCfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(workerCfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", workerCfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(ingestCfg.ReloadSchedule, func() {
		runIngestJob(logger, catalog, ingestCfg, workerCfg, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker marked as ready")
	logger.Info("worker started", slog.String("schedule", ingestCfg.ReloadSchedule), slog.String("timezone", workerCfg.Timezone))
	select {}
}

// runIngestJob refreshes every configured partition once. A failure on one
// partition is logged and does not prevent the others from refreshing.
func runIngestJob(logger *slog.Logger, catalog *ingest.Catalog, ingestCfg *config.IngestConfig, workerCfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	metrics.RecordJobRun("started")
	logger.Info("title ingestion started")

	ctx, cancel := context.WithTimeout(context.Background(), workerCfg.ReloadTimeout)
	defer cancel()

	ids, err := catalog.Partitions(ctx)
	if err != nil {
		logger.Error("failed to list partitions", slog.String("error", hhttp.SanitizeError(err)))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(startTime).Seconds())
		return
	}

	refreshed := 0
	for _, id := range ids {
		if err := catalog.OnReload(ctx, id); err != nil {
			logger.Error("partition refresh failed",
				slog.String("partition_id", id), slog.String("error", hhttp.SanitizeError(err)))
			continue
		}
		refreshed++
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(startTime).Seconds())
	metrics.RecordPartitionsRefreshed(refreshed)
	metrics.RecordLastSuccess()

	logger.Info("title ingestion completed",
		slog.Int("partitions", len(ids)),
		slog.Int("refreshed", refreshed),
		slog.Duration("duration", time.Since(startTime)))
}
