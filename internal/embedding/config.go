package embedding

import (
	"errors"
	"os"
	"strconv"
)

type Config struct {
	Model   string
	BaseURL string
	// Dims is the fixed embedding dimensionality shared by the index
	// and every query; a mismatch is a configuration error.
	Dims int
}

func LoadConfigFromEnv() (*Config, error) {
	baseURL := os.Getenv("EMBEDDING_BASE_URL")
	if baseURL == "" {
		return nil, errors.New("EMBEDDING_BASE_URL environment variable not set")
	}

	model := os.Getenv("EMBEDDING_MODEL")
	if model == "" {
		model = "nomic-embed-text"
	}

	dims := 768
	if v := os.Getenv("EMBEDDING_DIMS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, errors.New("EMBEDDING_DIMS must be a positive integer")
		}
		dims = parsed
	}

	return &Config{
		Model:   model,
		BaseURL: baseURL,
		Dims:    dims,
	}, nil
}
