package quadgo

import (
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/quadgo/geo"
)

// Logger wraps slog.Logger with quadgo-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a default text handler to stderr.
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

// LogAdd logs an insert operation.
func (l *Logger) LogAdd(p geo.Point, tags []string, ok bool) {
	if !ok {
		l.Debug("add rejected",
			"x", p.X,
			"y", p.Y,
		)
		return
	}
	l.Debug("add completed",
		"x", p.X,
		"y", p.Y,
		"tags", len(tags),
	)
}

// LogAddRange logs a bulk insert operation.
func (l *Logger) LogAddRange(count, added int) {
	if added < count {
		l.Warn("bulk add completed with rejections",
			"total", count,
			"added", added,
			"rejected", count-added,
		)
		return
	}
	l.Info("bulk add completed",
		"count", count,
	)
}

// LogRemove logs a remove operation.
func (l *Logger) LogRemove(ok bool) {
	l.Debug("remove completed",
		"removed", ok,
	)
}

// LogQuery logs a range query.
func (l *Logger) LogQuery(region geo.Rect, results int, duration time.Duration) {
	l.Debug("query completed",
		"min_x", region.Min.X,
		"min_y", region.Min.Y,
		"max_x", region.Max.X,
		"max_y", region.Max.Y,
		"results", results,
		"duration", duration,
	)
}

// LogMoved logs a relocation.
func (l *Logger) LogMoved(ok bool) {
	l.Debug("moved completed",
		"relocated", ok,
	)
}

// LogUpdateAll logs a full-index relocation sweep.
func (l *Logger) LogUpdateAll(tracked, moved int, duration time.Duration) {
	l.Info("update sweep completed",
		"tracked", tracked,
		"moved", moved,
		"duration", duration,
	)
}
