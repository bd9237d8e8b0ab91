package logger

import (
	"io"
	"log/slog"
)

// Option configures a logger created with New.
type Option func(*options)

type options struct {
	level  slog.Level
	pretty bool
	json   bool
	writer io.Writer
}

// WithDebug sets the level to Debug when true, Info otherwise.
func WithDebug(debug bool) Option {
	return func(o *options) {
		if debug {
			o.level = slog.LevelDebug
		} else {
			o.level = slog.LevelInfo
		}
	}
}

// WithPretty selects the charmbracelet/log handler for colourised terminal
// output.
func WithPretty(pretty bool) Option {
	return func(o *options) {
		o.pretty = pretty
	}
}

// WithJSON selects slog's JSON handler. It wins over WithPretty.
func WithJSON(json bool) Option {
	return func(o *options) {
		o.json = json
	}
}

// WithWriter overrides the output writer. Defaults to os.Stderr so log lines
// never mix with a streamed answer on stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}
