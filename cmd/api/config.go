package main

import (
	"errors"
	"log/slog"
	"os"
	"strconv"

	"github.com/auricast/auricast/pkg/config/env"
)

type AppConfig struct {
	DatabaseURL   string
	EmbeddingDims int
}

func LoadAppConfig() (*AppConfig, error) {
	err := env.LoadDotEnv("cmd/api/.env")
	if err != nil {
		slog.Info("Skipping .env ...", "error", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}

	dims := 768
	if v := os.Getenv("EMBEDDING_DIMS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, errors.New("EMBEDDING_DIMS must be a positive integer")
		}
		dims = parsed
	}

	return &AppConfig{
		DatabaseURL:   dbURL,
		EmbeddingDims: dims,
	}, nil
}
