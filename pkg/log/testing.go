// Package log provides testing utilities for structured logging.
//
// NewTestLogger returns a logger whose JSON output is captured in a
// buffer so tests can assert on emitted attributes without touching
// the process-wide default logger.
package log

import (
	"bytes"
	"log/slog"
)

// NewTestLogger creates a logger that writes JSON records into the
// returned buffer. The stacktrace-formatting handler is installed so
// tests exercise the same code path as production logging.
func NewTestLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	handler := slog.NewJSONHandler(buffer, &slog.HandlerOptions{Level: level})
	return slog.New(WrapByErrFmtHandler(handler)), buffer
}
