// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RunIDKey is the context key for run IDs.
	RunIDKey ContextKey = "run_id"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger

	mu      sync.Mutex
	current config
)

type config struct {
	level  Level
	format Format
	out    io.Writer
	sinks  []io.Writer
}

func init() {
	// Initialize with a default logger (text format, Info level)
	InitLogger(LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel maps a level name to a Level. Unknown names yield LevelInfo and false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// ParseFormat maps a format name to a Format. Unknown names yield FormatText and false.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, true
	case "text", "":
		return FormatText, true
	}
	return FormatText, false
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger initializes the global logger with the specified level and format.
// Logs go to stderr so rendered output on stdout stays clean.
func InitLogger(level Level, format Format) {
	mu.Lock()
	defer mu.Unlock()
	current = config{level: level, format: format, out: os.Stderr}
	rebuild()
}

// SetOutput redirects the primary log output. Sinks added with AddSink are kept.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	current.out = w
	rebuild()
}

// AddSink fans every log record out to w as JSON, in addition to the primary
// output. Used for diagnostic log files.
func AddSink(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	current.sinks = append(current.sinks, w)
	rebuild()
}

// rebuild must be called with mu held.
func rebuild() {
	opts := &slog.HandlerOptions{
		Level: current.level.slogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var primary slog.Handler
	if current.format == FormatJSON {
		primary = slog.NewJSONHandler(current.out, opts)
	} else {
		primary = slog.NewTextHandler(current.out, opts)
	}

	handler := primary
	if len(current.sinks) > 0 {
		handlers := []slog.Handler{primary}
		for _, s := range current.sinks {
			handlers = append(handlers, slog.NewJSONHandler(s, opts))
		}
		handler = slogmulti.Fanout(handlers...)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return defaultLogger
}

// OrDefault returns l, or the global logger when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return GetLogger()
}

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if runID := GetRunID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger
}

// Helper functions for common logging patterns

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// StructuralDefect logs a token the renderer had to drop or repair.
func StructuralDefect(l *slog.Logger, book, marker string, err error, args ...any) {
	allArgs := []any{
		"book", book,
		"marker", marker,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	OrDefault(l).Warn("structural_defect", allArgs...)
}

// BookNameFallback logs that a book title came from the canonical table.
func BookNameFallback(l *slog.Logger, book, name string, args ...any) {
	allArgs := []any{
		"book", book,
		"name", name,
	}
	allArgs = append(allArgs, args...)
	OrDefault(l).Info("book_name_fallback", allArgs...)
}

// HighlightMiss logs a quote that could not be highlighted in a verse.
func HighlightMiss(l *slog.Logger, ref, quote, stage string, args ...any) {
	allArgs := []any{
		"ref", ref,
		"quote", quote,
		"stage", stage,
	}
	allArgs = append(allArgs, args...)
	OrDefault(l).Warn("highlight_miss", allArgs...)
}
