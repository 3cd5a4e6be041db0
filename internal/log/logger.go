// Package log builds the structured logger shared by the client and the CLI.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format is the log output format.
type Format string

const (
	// FormatText is human-readable key=value output
	FormatText Format = "text"
	// FormatJSON is one JSON object per line
	FormatJSON Format = "json"
)

// Field keys used by request logging.
const (
	MethodKey   = "method"
	URLKey      = "url"
	StatusKey   = "status"
	DurationKey = "duration_ms"
	CancelKey   = "key"
	TimingKey   = "timing"
	OutcomeKey  = "outcome"
	ErrorKey    = "error"
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum level logged (debug, info, warn, error).
	// Default: warn
	Level string

	// Format selects the handler.
	// Default: text
	Format Format

	// Output receives the log lines.
	// Default: os.Stderr
	Output io.Writer
}

// DefaultConfig returns the configuration used when nothing is set. The
// CLI prints results on stdout, so logs stay quiet on stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  "warn",
		Format: FormatText,
		Output: os.Stderr,
	}
}

// FromEnv creates a Config from environment variables:
//   - PEACH_LOG_LEVEL: debug, info, warn, error (takes precedence over LOG_LEVEL)
//   - LOG_LEVEL: debug, info, warn, error
//   - LOG_FORMAT: text, json
func FromEnv() *Config {
	cfg := DefaultConfig()

	if level := os.Getenv("PEACH_LOG_LEVEL"); level != "" {
		cfg.Level = strings.ToLower(level)
	} else if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = strings.ToLower(level)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}

	return cfg
}

// New creates a logger from cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// SanitizeHeader masks credentials in header values before they are logged.
func SanitizeHeader(name, value string) string {
	switch strings.ToLower(name) {
	case "authorization", "proxy-authorization", "cookie", "x-api-key":
		if len(value) <= 4 {
			return "[REDACTED]"
		}
		return "..." + value[len(value)-4:]
	}
	return value
}
