// Package logging builds the slog loggers used by the daemon.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel converts a config log level. Unknown values map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options selects where daemon logs go.
type Options struct {
	Level string
	// File is the log path. Empty or "-" disables file logging.
	File      string
	MaxSizeMB int
	MaxFiles  int
}

// New returns a text logger writing to stderr and, when configured, to a
// rotating file. The returned closer releases the file.
func New(stderr io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	var out io.Writer = stderr
	var closer io.Closer = nopCloser{}

	if opts.File != "" && opts.File != "-" {
		f, err := OpenRotatingFile(RotateConfig{
			FilePath:  opts.File,
			MaxSizeMB: opts.MaxSizeMB,
			MaxFiles:  opts.MaxFiles,
		})
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(stderr, f)
		closer = f
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	}))
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
