package config

import (
	"flag"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
)

// parseFlags applies -a (base URL), -e (environment), -d (cache path),
// -l (log level) and -t (request timeout, e.g. 10s) from args. Other
// arguments are ignored. A malformed value panics.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-e", "-d", "-l", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "backend API base URL")
	fs.StringVar(&cfg.Env, "e", cfg.Env, "environment (development|production)")
	fs.StringVar(&cfg.CacheDSN, "d", cfg.CacheDSN, "local cache database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout, 0 for none")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
