package main

import (
	"errors"
	"log/slog"
	"os"
	"strconv"

	"github.com/auricast/auricast/internal/jobbus"
	"github.com/auricast/auricast/pkg/config/env"
)

type AppConfig struct {
	DatabaseURL   string
	SpeechBaseURL string
	WorkerCount   int
	Bus           jobbus.Config
}

func LoadAppConfig() (*AppConfig, error) {
	err := env.LoadDotEnv("cmd/worker/.env")
	if err != nil {
		slog.Info("Skipping .env ...", "error", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}

	speechURL := os.Getenv("SPEECH_BASE_URL")
	if speechURL == "" {
		return nil, errors.New("SPEECH_BASE_URL environment variable not set")
	}

	workers := 4
	if v := os.Getenv("WORKER_COUNT"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, errors.New("WORKER_COUNT must be a positive integer")
		}
		workers = parsed
	}

	busCfg := jobbus.DefaultConfig()
	if v := os.Getenv("REDIS_URL"); v != "" {
		busCfg.RedisURL = v
	}

	return &AppConfig{
		DatabaseURL:   dbURL,
		SpeechBaseURL: speechURL,
		WorkerCount:   workers,
		Bus:           busCfg,
	}, nil
}
