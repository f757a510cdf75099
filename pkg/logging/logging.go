// Package logging builds the slog loggers shared by daypilot components.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Attribute keys used across packages.
const (
	FieldOp        = "op"
	FieldDate      = "date"
	FieldEventID   = "event_id"
	FieldRequestID = "request_id"
	FieldDuration  = "duration_ms"
	FieldStatus    = "status"
	FieldGen       = "generation"
)

// ParseLevel maps a config string to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns a text logger writing to w at the given level.
func New(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Since is the duration attribute for an operation started at start.
func Since(start time.Time) slog.Attr {
	return slog.Int64(FieldDuration, time.Since(start).Milliseconds())
}
