// Package logger builds the slog loggers used across ndstream.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// New returns a logger configured by opts. The default is an Info-level text
// logger on stderr.
func New(opts ...Option) *slog.Logger {
	o := &options{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(o)
	}

	var w io.Writer = os.Stderr
	if o.writer != nil {
		w = o.writer
	}

	switch {
	case o.json:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: o.level}))
	case o.pretty:
		return slog.New(log.NewWithOptions(w, log.Options{
			Level:           log.Level(o.level),
			ReportTimestamp: true,
		}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: o.level}))
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
