package env

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from the .env file at path.
// ENV_PATH overrides path when set. Variables already present in the
// environment are kept. A missing file is returned as an error; callers
// running with env-only configuration tolerate it.
func LoadDotEnv(path string) error {
	if v := os.Getenv("ENV_PATH"); v != "" {
		path = v
	}
	return godotenv.Load(path)
}
