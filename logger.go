package vecgraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/vecgraph/snapshot"
)

// Logger wraps slog.Logger with index-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// ParseLogLevel parses "debug", "info", "warn" or "error".
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// WithNamespace adds a namespace field to the logger.
func (l *Logger) WithNamespace(ns string) *Logger {
	return &Logger{
		Logger: l.Logger.With("namespace", ns),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, foreign any, key uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"foreign_key", foreign,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "insert completed",
		"foreign_key", foreign,
		"key", key,
	)
}

// LogFind logs a find operation.
func (l *Logger) LogFind(ctx context.Context, limit, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "find failed",
			"limit", limit,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "find completed",
		"limit", limit,
		"results", results,
	)
}

// LogBatchFind logs a batch of finds.
func (l *Logger) LogBatchFind(ctx context.Context, queries, limit int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch find failed",
			"queries", queries,
			"limit", limit,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "batch find completed",
		"queries", queries,
		"limit", limit,
	)
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, name string, info snapshot.Info, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot saved",
		"name", name,
		"codec", info.Codec.String(),
		"bytes", info.Size,
		"raw_bytes", info.RawSize,
	)
}

// LogRestore logs a restore operation.
func (l *Logger) LogRestore(ctx context.Context, name string, info snapshot.Info, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot restored",
		"name", name,
		"codec", info.Codec.String(),
		"bytes", info.Size,
	)
}
