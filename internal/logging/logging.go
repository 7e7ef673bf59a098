// Package logging builds the zerolog logger used across regsync.
//
// Logs go to a JSON-lines file rather than the terminal, which belongs to the UI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	File  string // empty writes to Fallback
	Level string
	// Fallback receives logs when File is empty; nil discards them.
	Fallback io.Writer
}

// New opens the log file and returns a logger plus the closer for the file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		w      io.Writer = io.Discard
		closer io.Closer = nopCloser{}
	)
	if opts.Fallback != nil {
		w = opts.Fallback
	}
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		w, closer = file, file
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(w).Level(level).With().Timestamp().Str("app", "regsync").Logger()
	return logger, closer, nil
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(raw string) (zerolog.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(trimmed)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("log level %q: %w", raw, err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
