package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, EnvDevelopment, c.Env)
	assert.Equal(t, "info", c.LogLevel)
	assert.Zero(t, c.RequestTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr error
	}{
		{name: "development default", cfg: Config{Env: "development"}, want: DefaultBaseURL},
		{name: "trailing slash trimmed", cfg: Config{Env: "Production", BaseURL: "https://x.io/api/"}, want: "https://x.io/api"},
		{name: "production requires url", cfg: Config{Env: "production"}, wantErr: ErrBaseURLRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.cfg.BaseURL)
		})
	}

	bad := Config{Env: "staging"}
	assert.ErrorContains(t, bad.Validate(), "unknown environment")

	neg := Config{Env: EnvDevelopment, RequestTimeout: -time.Second}
	assert.Error(t, neg.Validate())
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://127.0.0.1:9090/api", "-e", "production", "-d", "/tmp/c.db", "-l", "debug", "-t", "5s", "-x", "ignored"},
			expected: &Config{
				Env: "production", BaseURL: "http://127.0.0.1:9090/api", CacheDSN: "/tmp/c.db",
				LogLevel: "debug", RequestTimeout: 5 * time.Second,
			},
		},
		{name: "incorrect timeout", args: []string{"-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("FINTRACK_BASE_URL", "https://env.example/api")
	t.Setenv("FINTRACK_REQUEST_TIMEOUT", "3s")

	cfg := &Config{Env: EnvDevelopment, LogLevel: "warn"}
	parseEnv(cfg)

	assert.Equal(t, "https://env.example/api", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "warn", cfg.LogLevel, "unset variables keep current values")
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"env":       "production",
		"base_url":  "https://json.example/api",
		"log_level": "error",
	})
	t.Setenv("FINTRACK_LOG_LEVEL", "warn")

	os.Args = []string{"fintrack", "-c", path, "-a", "https://flag.example/api"}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, "https://flag.example/api", cfg.BaseURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestCachePath(t *testing.T) {
	c := Config{CacheDSN: "/data/cache.db"}
	p, err := c.CachePath()
	require.NoError(t, err)
	assert.Equal(t, "/data/cache.db", p)

	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	c = Config{}
	p, err = c.CachePath()
	require.NoError(t, err)
	assert.Equal(t, "cache.db", filepath.Base(p))
	assert.Equal(t, "fintrack", filepath.Base(filepath.Dir(p)))
}
