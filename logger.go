package grgmap

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with grgmap-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRun adds a run_id field to the logger.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", runID),
	}
}

// WithBuckets adds a buckets field to the logger.
func (l *Logger) WithBuckets(buckets int) *Logger {
	return &Logger{
		Logger: l.Logger.With("buckets", buckets),
	}
}

// LogRunStart logs the start of a mapping run.
func (l *Logger) LogRunStart(ctx context.Context, numSamples, workers, batchSize int) {
	l.InfoContext(ctx, "mapping started",
		"samples", numSamples,
		"workers", workers,
		"batch_size", batchSize,
	)
}

// LogRun logs the outcome of a mapping run.
func (l *Logger) LogRun(ctx context.Context, report Report, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "mapping failed",
			"mutations", report.TotalMutations,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "mapping completed",
		"mutations", report.TotalMutations,
		"new_nodes", report.NewTreeNodes,
		"reused_exactly", report.ReusedExactly,
		"reused_partially", report.ReusedMutNodes,
		"singletons", report.MutationsWithOneSample,
		"empty", report.EmptyMutations,
		"elapsed", elapsed,
	)
}

// LogIndex logs the similarity index state.
func (l *Logger) LogIndex(ctx context.Context, stats IndexStats) {
	l.DebugContext(ctx, "similarity index",
		"entries", stats.Entries,
		"tombstones", stats.Tombstones,
		"depth", stats.Depth,
		"comparisons", stats.Comparisons,
	)
}
