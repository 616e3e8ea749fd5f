// Package logging configures zerolog for the berry-stats service and hands out
// per-component loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Component names used as the "component" field of sub-loggers.
const (
	ComponentClient     = "pokeapi-client"
	ComponentBerries    = "berries"
	ComponentPagination = "pagination"
	ComponentCache      = "cache"
	ComponentServer     = "server"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", "berry-stats").
		Logger()

	log.Logger = logger

	return logger
}

// ValidateLevel reports whether s names a supported level.
func ValidateLevel(s string) error {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", s)
	}
}

// parseLevel converts LogLevel to zerolog.Level, falling back to info.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: per-request detail
//   - upstream GETs (url, status, duration)
//   - response cache hit/miss, ETag matches
//   - worker pool progress
//
// Info: normal operation
//   - catalog drained (pages, entries)
//   - summary computed (samples, duration)
//   - server startup/shutdown
//
// Warn: degraded but serving
//   - non-2xx from PokeAPI
//   - Redis errors (cache bypassed)
//
// Error: request failed
//   - aggregation aborted
//   - chart rendering failed
//
// Context Fields:
//   - url: upstream URL
//   - status: HTTP status code
//   - error_class: network, client, server, decode
//   - pages, entries, samples: pipeline sizes
//   - etag, ttl: response cache
