package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/filex"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DefaultBaseURL = "http://localhost:8080/api"
)

var ErrBaseURLRequired = errors.New("base URL must be set in production")

// Config holds runtime settings for the fintrack CLI.
//
// Fields:
//   - Env: "development" or "production".
//   - BaseURL: backend API root, e.g. http://localhost:8080/api.
//   - CacheDSN: path of the local SQLite cache; empty means the user cache dir.
//   - LogLevel: debug, info, warn or error.
//   - RequestTimeout: upper bound for one HTTP round trip; 0 disables it.
type Config struct {
	Env            string        `env:"FINTRACK_ENV"`
	BaseURL        string        `env:"FINTRACK_BASE_URL"`
	CacheDSN       string        `env:"FINTRACK_CACHE_DSN"`
	LogLevel       string        `env:"FINTRACK_LOG_LEVEL"`
	RequestTimeout time.Duration `env:"FINTRACK_REQUEST_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults. BaseURL is resolved in
// Validate because its default depends on Env.
func (c *Config) LoadDefaults() {
	c.Env = EnvDevelopment
	c.LogLevel = "info"
	c.RequestTimeout = 0
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment, and command-line flags. Later sources
// take precedence over earlier ones. Malformed input panics; an inconsistent
// result is reported by the returned error.
func LoadConfig() (*Config, error) {
	args := os.Args[1:]

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg)
	parseFlags(cfg, args)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combination of values and fills in BaseURL outside
// production.
func (c *Config) Validate() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("unknown environment %q", c.Env)
	}

	if c.BaseURL == "" {
		if c.Env == EnvProduction {
			return ErrBaseURLRequired
		}
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.RequestTimeout < 0 {
		return fmt.Errorf("negative request timeout %s", c.RequestTimeout)
	}
	return nil
}

// CachePath returns CacheDSN, or <user cache dir>/fintrack/cache.db when it
// is empty. The directory is created if needed.
func (c *Config) CachePath() (string, error) {
	if c.CacheDSN != "" {
		return c.CacheDSN, nil
	}
	dir, err := filex.EnsureDir("", "fintrack")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}
