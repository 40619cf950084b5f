// Package logging provides the process logger: a [types.Logger] backed by
// log/slog, writing colourised text through tint or JSON lines.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
	"github.com/lmittmann/tint"
)

// Output formats accepted by [New].
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logger adapts a *slog.Logger to [types.Logger].
type Logger struct {
	logger *slog.Logger
}

var _ types.Logger = (*Logger)(nil)

// New creates a Logger writing to w. level is one of debug, info, warn or
// error; format is [FormatText] or [FormatJSON].
func New(w io.Writer, level, format string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler

	switch strings.ToLower(format) {
	case "", FormatText:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.RFC3339,
		})
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		return nil, fmt.Errorf("unknown log format %q (must be text or json)", format)
	}

	return FromSlog(slog.New(handler)), nil
}

// FromSlog wraps an existing slog logger.
func FromSlog(l *slog.Logger) *Logger {
	return &Logger{logger: l}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return FromSlog(slog.New(slog.DiscardHandler))
}

// ParseLevel parses a level name, case-insensitively. An empty name is info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// Slog returns the underlying slog logger.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

func (l *Logger) Debug(msg string) { l.log(slog.LevelDebug, msg) }

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(slog.LevelDebug, format, args...)
}

func (l *Logger) Info(msg string) { l.log(slog.LevelInfo, msg) }

func (l *Logger) Infof(format string, args ...any) {
	l.logf(slog.LevelInfo, format, args...)
}

func (l *Logger) Warn(msg string) { l.log(slog.LevelWarn, msg) }

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(slog.LevelWarn, format, args...)
}

func (l *Logger) Error(msg string) { l.log(slog.LevelError, msg) }

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(slog.LevelError, format, args...)
}

//nolint:ireturn // Must return interface to implement types.Logger
func (l *Logger) WithField(key string, value any) types.Logger {
	return &Logger{logger: l.logger.With(key, value)}
}

//nolint:ireturn // Must return interface to implement types.Logger
func (l *Logger) WithFields(fields map[string]any) types.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	return &Logger{logger: l.logger.With(args...)}
}

func (l *Logger) log(level slog.Level, msg string) {
	l.logger.Log(context.Background(), level, msg)
}

// logf formats only when the level is enabled.
func (l *Logger) logf(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	l.logger.Log(ctx, level, fmt.Sprintf(format, args...))
}
