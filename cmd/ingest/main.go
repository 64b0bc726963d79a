// Package main runs one ingestion pass over the configured syndication
// sources: new entries become unprocessed content drafts and enter the
// processing pipeline; previously seen source URLs are skipped.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/auricast/auricast/internal/ingest"
	"github.com/auricast/auricast/internal/jobbus"
	"github.com/auricast/auricast/internal/storage/pg"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelInfo)

	cfg, err := LoadAppConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	sources, err := ingest.LoadSources(cfg.SourcesPath)
	if err != nil {
		slog.Error("Failed to load source list", "error", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		slog.Warn("No enabled sources, nothing to do")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pg.NewConnectionPool(ctx, pg.PoolConfig{ConnStr: cfg.DatabaseURL})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := jobbus.Connect(cfg.Bus)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	bus := jobbus.NewBus(redisClient, cfg.Bus, slog.Default())
	contentRepo := pg.NewContentRepo(pool.GetConn())

	ingestor := ingest.NewIngestor(contentRepo, bus, slog.Default(),
		ingest.WithHostInterval(cfg.HostInterval))

	batchID := uuid.NewString()
	created, err := ingestor.IngestAll(ctx, sources, batchID)
	if err != nil {
		slog.Error("Ingestion aborted", "batch_id", batchID, "created", created, "error", err)
		os.Exit(1)
	}

	slog.Info("Ingestion finished", "batch_id", batchID, "sources", len(sources), "created", created)
}
