// Package logging wraps log/slog with reforecast-specific helpers.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/rfcst/internal/model"
)

// Logger wraps slog.Logger with domain-specific methods.
type Logger struct {
	*slog.Logger
}

// Options selects handler format and level.
type Options struct {
	Level string
	JSON  bool
	Debug bool
}

// New creates a logger writing to stderr.
func New(opts Options) *Logger {
	return NewTo(os.Stderr, opts)
}

// NewTo creates a logger writing to w.
func NewTo(w io.Writer, opts Options) *Logger {
	hopts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	if opts.Debug {
		hopts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}
	return &Logger{slog.New(handler)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewTo(io.Discard, Options{})
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// WithComponent adds a component field to the logger.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{l.With("component", component)}
}

// WithPlant adds a plant field to the logger.
func (l *Logger) WithPlant(plantID string) *Logger {
	return &Logger{l.With("plant", plantID)}
}

// LogNotice logs a reforecast notice at a level matching its severity.
func (l *Logger) LogNotice(n model.Notice) {
	switch n.Kind {
	case model.NoticeBlocked:
		l.Warn("KPI blocked: YTD realization already meets the annual budget",
			"format", n.Format,
			"kpi", n.KPI,
		)
	case model.NoticeSuppressed:
		l.Warn("KPI left out of the consolidated view",
			"kpi", n.KPI,
			"blocked_formats", strings.Join(n.Formats, ","),
		)
	case model.NoticeKeptPlan:
		l.Info("Plan kept: recomputed targets are already better than plan",
			"format", n.Format,
			"kpi", n.KPI,
		)
	case model.NoticeInfeasible:
		l.Info("Plan applied: required rate exceeds the FY target",
			"format", n.Format,
			"kpi", n.KPI,
		)
	}
}

// LogStoreOperation logs storage operations.
func (l *Logger) LogStoreOperation(operation, plantID string) {
	l.Debug("Store operation",
		"operation", operation,
		"plant", plantID,
	)
}

// LogRequest logs a served HTTP request.
func (l *Logger) LogRequest(method, path string, status, bytes int, duration time.Duration, requestID string) {
	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	}
	l.Log(context.Background(), level, "HTTP request",
		"method", method,
		"path", path,
		"status", status,
		"bytes", bytes,
		"duration_ms", duration.Milliseconds(),
		"request_id", requestID,
	)
}
