// Package logging provides structured logging for lookupsync using zerolog.
// Terminals get human-readable console output; pipes and files get JSON.
//
// A run carries its logger in the context and narrows it as it goes, so
// every line names the store, list and phase it belongs to:
//
//	ctx = logging.WithList(ctx, "Products")
//	ctx = logging.WithStore(ctx, "destination")
//	logging.FromContext(ctx).Info().Int("records", 1200).Msg("Records loaded")
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger backs Default and every context without a logger.
var defaultLogger = NewLoggerFromConfig(configFromEnv())

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's global one.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// configFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT and NO_COLOR.
// DEBUG=1 without LOG_LEVEL selects debug.
func configFromEnv() *Config {
	cfg := DefaultConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = level
	} else if os.Getenv("DEBUG") != "" {
		cfg.Level = "debug"
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		cfg.Output = output
	}
	return cfg
}

func stderrIsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}
