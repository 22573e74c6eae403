package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
)

// New creates a *slog.Logger writing to stderr and optionally to logFile,
// backed by a charmbracelet/log handler. format is "json" or "text".
// It also sets the logger as the slog default so package-level slog calls
// work. The returned cleanup func closes the log file if one was opened;
// callers must defer it.
func New(level, logFile, format string) (*slog.Logger, func(), error) {
	writers := []io.Writer{os.Stderr}
	cleanup := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, f)
		cleanup = func() { _ = f.Close() }
	}

	logger := slog.New(NewHandler(io.MultiWriter(writers...), level, format))
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// NewHandler returns the charmbracelet/log handler used by New, writing to w.
func NewHandler(w io.Writer, level, format string) *clog.Logger {
	h := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           parseLevel(level),
	})
	if strings.EqualFold(format, "text") {
		h.SetFormatter(clog.TextFormatter)
	} else {
		h.SetFormatter(clog.JSONFormatter)
	}
	return h
}

func parseLevel(s string) clog.Level {
	lvl, err := clog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return clog.InfoLevel
	}
	return lvl
}
