// Package config loads runtime configuration for the fintrack CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. FINTRACK_* environment variables (a .env file is loaded by main).
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string     backend API base URL
//	-e string     environment (development|production)
//	-d string     local cache database path
//	-l string     log level
//	-t duration   request timeout
//
// # JSON schema
//
//	{
//	  "env": "production",
//	  "base_url": "https://fintrack.example.com/api",
//	  "cache_dsn": "/var/lib/fintrack/cache.db",
//	  "log_level": "warn",
//	  "request_timeout": "10s"
//	}
//
// In production the base URL has no default and must come from one of the
// sources above.
package config
