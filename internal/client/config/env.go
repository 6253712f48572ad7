package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays Config with FINTRACK_* environment variables. Unset
// variables leave the current values alone. Panics on malformed values.
func parseEnv(cfg *Config) {
	if err := cleanenv.UpdateEnv(cfg); err != nil {
		panic(err)
	}
}
