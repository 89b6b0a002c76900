package config

import (
	"io"
	"log/slog"

	"git.home.luguber.info/inful/venuestatus/internal/foundation/normalization"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = normalization.New(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, "")

// NormalizeLogLevel returns the canonical level or "" when unknown.
func NormalizeLogLevel(raw string) LogLevel {
	return logLevels.Normalize(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormats = normalization.New(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, "")

// NormalizeLogFormat returns the canonical format or "" when unknown.
func NormalizeLogFormat(raw string) LogFormat {
	return logFormats.Normalize(raw)
}

// SlogLevel maps the configured level onto slog.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the slog logger described by the configuration.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
