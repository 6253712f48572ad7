// Package config handles configuration for the development backend,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the dev backend.
//
// Fields:
//   - Addr: bind address of the HTTP listener.
//   - BasePath: prefix of every API route.
//   - SecretKey: HMAC secret for signing session JWTs (HS256). Do not use the default outside development.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: cookie token lifetimes.
//   - BcryptCost: cost factor for password hashes.
//   - MaxUploadBytes: limit for the transaction import body.
//   - SeedUser: optional "email:password" account created at start.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	Addr                         string
	BasePath                     string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	BcryptCost                   int
	MaxUploadBytes               int64
	SeedUser                     string
	LogLevel                     string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.BasePath = "/api"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 1 * time.Minute
	c.RefreshTokenValidityDuration = 60 * time.Minute
	c.BcryptCost = 10
	c.MaxUploadBytes = 5 << 20
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
