package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/auricast/auricast/internal/jobbus"
	"github.com/auricast/auricast/pkg/config/env"
)

type AppConfig struct {
	DatabaseURL  string
	SourcesPath  string
	HostInterval time.Duration
	Bus          jobbus.Config
}

func LoadAppConfig() (*AppConfig, error) {
	err := env.LoadDotEnv("cmd/ingest/.env")
	if err != nil {
		slog.Info("Skipping .env ...", "error", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}

	sourcesPath := os.Getenv("SOURCES_PATH")
	if sourcesPath == "" {
		sourcesPath = "config/sources.yaml"
	}

	hostInterval := time.Second
	if v := os.Getenv("HOST_INTERVAL"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return nil, errors.New("HOST_INTERVAL must be a positive duration")
		}
		hostInterval = parsed
	}

	busCfg := jobbus.DefaultConfig()
	if v := os.Getenv("REDIS_URL"); v != "" {
		busCfg.RedisURL = v
	}

	return &AppConfig{
		DatabaseURL:  dbURL,
		SourcesPath:  sourcesPath,
		HostInterval: hostInterval,
		Bus:          busCfg,
	}, nil
}
