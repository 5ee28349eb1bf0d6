package logging

import (
	"context"
	"io"
	"log/slog"
)

// ContextFields extracts key–value pairs carried by a context, such as a
// request ID, so they are attached to every record logged with it.
type ContextFields func(ctx context.Context) []any

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	l      *slog.Logger
	fields ContextFields
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewJSONLogger writes JSON records to w. Debug records are emitted only
// when debug is set.
func NewJSONLogger(w io.Writer, debug bool) *SlogLogger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// WithContextFields returns a copy that adds fn(ctx) to every record.
func (s *SlogLogger) WithContextFields(fn ContextFields) *SlogLogger {
	return &SlogLogger{l: s.l, fields: fn}
}

func (s *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.l.Enabled(ctx, level) {
		return
	}
	if s.fields != nil {
		if extra := s.fields(ctx); len(extra) > 0 {
			args = append(extra, args...)
		}
	}
	s.l.Log(ctx, level, msg, args...)
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args)
}

// With keeps the context fields of the parent.
func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...), fields: s.fields}
}
