package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects where log records go. Console writes to stderr; the
// terminal UI turns it off because stderr shares the screen it draws on.
type Options struct {
	Level   string
	File    string
	Console bool
}

// New creates a *slog.Logger writing JSON to the configured outputs and sets
// it as the slog default. The returned cleanup func closes the log file if
// one was opened; callers must defer it.
func New(opts Options) (*slog.Logger, func(), error) {
	var writers []io.Writer
	if opts.Console {
		writers = append(writers, os.Stderr)
	}
	cleanup := func() {}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, f)
		cleanup = func() { _ = f.Close() }
	}

	var w io.Writer = io.Discard
	if len(writers) > 0 {
		w = io.MultiWriter(writers...)
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(opts.Level)}))
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

func parseLevel(s string) slog.Level {
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
