package logger

import (
	"io"
	"log/slog"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatText outputs human-readable text
	FormatText Format = "text"
	// FormatJSON outputs structured JSON
	FormatJSON Format = "json"
)

type config struct {
	level  slog.Level
	output io.Writer
	format Format
}

// Option configures a logger created by New.
type Option func(*config)

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the destination writer.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

// WithFormat sets the output encoding.
func WithFormat(format Format) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithQuiet limits output to warnings and errors.
func WithQuiet() Option {
	return WithLevel(slog.LevelWarn)
}
