package pagelog

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with pagelog-specific context.
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

// WithTopic adds a topic field to the logger.
func (l *Logger) WithTopic(topic string) *Logger {
	return &Logger{
		Logger: l.Logger.With("topic", topic),
	}
}

// LogPublish logs a publish call.
func (l *Logger) LogPublish(ctx context.Context, count int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "publish completed",
			"count", count,
			"bytes", bytes,
		)
	}
}

// LogPersist logs the write of a single page blob.
func (l *Logger) LogPersist(ctx context.Context, blob string, records int, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "page persist failed",
			"blob", blob,
			"records", records,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "page persisted",
			"blob", blob,
			"records", records,
			"bytes", bytes,
		)
	}
}

// LogPersistRound logs a completed Persist call.
func (l *Logger) LogPersistRound(ctx context.Context, stats PersistStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "persist failed",
			"pages", stats.Pages,
			"failed", stats.FailedPages,
			"error", err,
		)
	} else if stats.Pages > 0 {
		l.InfoContext(ctx, "persist completed",
			"pages", stats.Pages,
			"records", stats.Records,
			"bytes", stats.Bytes,
			"duration", stats.Duration,
		)
	}
}

// LogLoad logs a page load from the blob store.
func (l *Logger) LogLoad(ctx context.Context, page int64, blobs, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "page load failed",
			"page", page,
			"blobs", blobs,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "page loaded",
			"page", page,
			"blobs", blobs,
			"records", records,
		)
	}
}

// LogGC logs a garbage collection pass.
func (l *Logger) LogGC(ctx context.Context, stats GCStats) {
	l.InfoContext(ctx, "garbage collection completed",
		"requested_min_id", stats.RequestedMinID,
		"min_id", stats.MinID,
		"freed_bytes", stats.FreedBytes,
		"dropped_pages", len(stats.DroppedPages),
	)
}

// LogEviction logs pages dropped from memory.
func (l *Logger) LogEviction(ctx context.Context, reason string, pages int, bytes int64) {
	l.DebugContext(ctx, "pages evicted",
		"reason", reason,
		"pages", pages,
		"bytes", bytes,
	)
}

// LogClose logs topic shutdown.
func (l *Logger) LogClose(ctx context.Context, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "topic closed",
			"elapsed", elapsed,
		)
	}
}
