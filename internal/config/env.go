package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"jobhunt-aggregator/internal/errors"
)

// LoadDotEnv loads .env files into the process environment. Variables that
// are already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return errors.Wrap(godotenv.Load(existing...), "load .env")
}

// ApplyEnv overrides cfg with the supported environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("JOBHUNT_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("JOBHUNT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "JOBHUNT_PORT=%q", v)
		}
		cfg.App.Port = port
	}
	if v := os.Getenv("JOBHUNT_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "JOBHUNT_LOG_JSON=%q", v)
		}
		cfg.App.LogJSON = b
	}
	if v := os.Getenv("JOBHUNT_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		if os.Getenv("DATABASE_DRIVER") == "" && strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("IMAP_APP_PASSWORD"); v != "" {
		cfg.Email.AppPassword = v
	}
	return nil
}
