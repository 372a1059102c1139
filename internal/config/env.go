package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
)

// Environment overrides honoured after the file is parsed.
const (
	EnvLogLevel  = "TWBUILDER_LOG_LEVEL"
	EnvLogFormat = "TWBUILDER_LOG_FORMAT"
)

// loadEnvFiles loads .env and .env.local from dir. Variables already present in the
// process environment are never overwritten. Missing files are skipped.
func loadEnvFiles(dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return foundationerrors.ConfigError("failed to load environment file").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		slog.Debug("Loaded environment file", slog.String("path", path))
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = LogFormat(v)
	}
}
