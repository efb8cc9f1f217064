package tilekit

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with tilekit-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDataSet adds dataset id and name fields to the logger.
func (l *Logger) WithDataSet(id uint64, name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset_id", id, "dataset", name),
	}
}

// LogRegister logs a tile set joining a Kit.
func (l *Logger) LogRegister(ctx context.Context, capacity int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "tile set registration failed",
			"capacity", capacity,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "tile set registered",
			"capacity", capacity,
		)
	}
}

// LogIngest logs a tileset.json ingestion.
func (l *Logger) LogIngest(ctx context.Context, tiles int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingest failed",
			"duration", duration,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "ingest completed",
			"tiles", tiles,
			"duration", duration,
		)
	}
}

// LogSnapshot logs a snapshot write.
func (l *Logger) LogSnapshot(ctx context.Context, bytes int64, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"bytes", bytes,
			"duration", duration,
		)
	}
}

// LogRestore logs a snapshot restore.
func (l *Logger) LogRestore(ctx context.Context, tiles int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "restore completed",
			"tiles", tiles,
		)
	}
}
