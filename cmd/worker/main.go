// Package main runs the content processing workers: a pool of consumers
// pulling stage jobs from the shared stream and advancing content
// through transcription, embedding, synthesis and the processed mark.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/auricast/auricast/internal/embedding"
	"github.com/auricast/auricast/internal/jobbus"
	"github.com/auricast/auricast/internal/pipeline"
	"github.com/auricast/auricast/internal/speech"
	"github.com/auricast/auricast/internal/storage/pg"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelInfo)

	cfg, err := LoadAppConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	embedCfg, err := embedding.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load embedding configuration", "error", err)
		os.Exit(1)
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

	embedder, err := embedding.NewOllamaClient(embedCfg.BaseURL, embedCfg.Model)
	if err != nil {
		slog.Error("Failed to create embedding client", "error", err)
		os.Exit(1)
	}

	speechClient, err := speech.NewHTTPClient(cfg.SpeechBaseURL)
	if err != nil {
		slog.Error("Failed to create speech client", "error", err)
		os.Exit(1)
	}

	db := pool.GetConn()
	bus := jobbus.NewBus(redisClient, cfg.Bus, slog.Default())

	worker := pipeline.NewWorker(
		pg.NewContentRepo(db),
		pg.NewChunkRepo(db),
		pg.NewJobRepo(db),
		bus,
		embedder,
		speechClient,
		speechClient,
		embedCfg.Dims,
		pipeline.DefaultConfig(),
		slog.Default(),
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.WorkerCount; i++ {
		name := fmt.Sprintf("worker-%d", i)
		g.Go(func() error {
			return bus.Consume(gctx, name, worker)
		})
	}

	slog.Info("Processing workers started", "count", cfg.WorkerCount)
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("Worker pool stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}
