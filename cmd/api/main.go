// Package main serves the queue/feed API: per-user queue and feed
// pages, queue/unqueue/archive/reorder mutations, interaction
// recording, feed population and dead-letter inspection.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/auricast/auricast/internal/ledger"
	"github.com/auricast/auricast/internal/router"
	"github.com/auricast/auricast/internal/scheduler"
	"github.com/auricast/auricast/internal/server"
	"github.com/auricast/auricast/internal/storage/pg"
	pkgserver "github.com/auricast/auricast/pkg/server"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelInfo)

	sCfg, err := server.LoadConfig("cmd/api/.env")
	if err != nil {
		slog.Error("Failed to load server config", "error", err)
		os.Exit(1)
	}

	cfg, err := LoadAppConfig()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pg.NewConnectionPool(ctx, pg.PoolConfig{ConnStr: cfg.DatabaseURL})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := pool.GetConn()
	feedItems := pg.NewFeedItemRepo(db)
	interactions := pg.NewInteractionRepo(db)
	jobs := pg.NewJobRepo(db)
	similarity := pg.NewSimilaritySearcher(db, cfg.EmbeddingDims)

	sched := scheduler.New(feedItems, interactions, similarity, slog.Default())
	led := ledger.New(interactions, slog.Default())

	healthy := pkgserver.HealthCheckerFunc(func(ctx context.Context) bool {
		return pool.Ping(ctx) == nil
	})

	s := server.New(sCfg).SetupHealthChecks("/healthz", healthy)

	router.NewFeedRouter(s.Echo, sched, led, jobs).Bind()

	if err := s.Start(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
