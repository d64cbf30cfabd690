package app

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/lookupsync/pkg/logging"
)

// NewLogger builds the run's logger and installs it as the default.
// The level comes from --log-level (or LOG_LEVEL), then -q, then -v,
// and is info otherwise. Conflicting or unknown settings are reported
// on the new logger itself.
func NewLogger(config *Config) zerolog.Logger {
	level, notice := resolveLogLevel(config)

	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor,
		AddCaller: level == "debug" || level == "trace",
	})
	logging.SetDefault(logger)

	if notice != "" {
		logger.Warn().Str("level", level).Msg(notice)
	}
	return logger
}

// resolveLogLevel returns the effective level and, when the configuration
// had to be corrected, a notice explaining the correction.
func resolveLogLevel(config *Config) (string, string) {
	if config.LogLevel != "" {
		if level, ok := normalizeLogLevel(config.LogLevel); ok {
			return level, ""
		}
		return "info", "Unknown log level " + config.LogLevel + ", using info"
	}

	switch {
	case config.Verbose && config.Quiet:
		return "warn", "Both --verbose and --quiet given, using --quiet"
	case config.Quiet:
		return "warn", ""
	case config.Verbose:
		return "debug", ""
	}
	return "info", ""
}

func normalizeLogLevel(level string) (string, bool) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level, true
	case "warning":
		return "warn", true
	}
	return "", false
}
