package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads <projectHome>/.env into the process environment when the
// file exists. Existing environment variables win over file entries. Missing
// files are not an error; malformed files degrade with a warning.
func LoadEnvFile(projectHome string) {
	path := filepath.Join(projectHome, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("Failed to load .env file", "path", path, "error", err)
		return
	}
	slog.Debug("Loaded environment file", "path", path)
}

// NATSURL returns the lifecycle-event broker URL, empty when event
// publication is disabled.
func NATSURL() string {
	return os.Getenv("PUBCTL_NATS_URL")
}
