package logging

import (
	"context"
	"fmt"
	"log/slog"
)

const redactedPlaceholder = "[redacted]"

// Attribute keys shared by the model and worker records.
const (
	KeyComponent = "component"
	KeySurface   = "surface"
	KeyOp        = "op"
	KeyRequestID = "request_id"
	KeyPath      = "path"
	KeyBytes     = "bytes"
	KeySource    = "source"
	KeySink      = "sink"
	KeyResults   = "results"
	KeyError     = "error"
)

// Logger is the logging surface of the fasttext wrapper. Arguments follow
// the slog convention.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New wraps an slog.Logger; nil means slog.Default().
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return &slogLogger{logger: slog.New(slog.DiscardHandler)}
}

// ForModel scopes l to one engine instance on the given binding surface.
func ForModel(l Logger, surface string) Logger {
	return l.With(KeyComponent, "model", KeySurface, surface)
}

// ForWorker scopes l to a worker admitting up to maxReads concurrent reads.
func ForWorker(l Logger, maxReads int64) Logger {
	return l.With(KeyComponent, "worker", "max_concurrent_reads", maxReads)
}

// Op names the wrapper operation a record belongs to.
func Op(op string) slog.Attr { return slog.String(KeyOp, op) }

// RequestID tags a record with the worker's per-call identifier.
func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }

// Path records a model file location.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// Bytes records the size of an in-memory model image.
func Bytes(n int) slog.Attr { return slog.Int(KeyBytes, n) }

// Results records how many items an engine query returned.
func Results(n int) slog.Attr { return slog.Int(KeyResults, n) }

// Source records where a model image came from.
func Source(s fmt.Stringer) slog.Attr { return slog.String(KeySource, s.String()) }

// Sink records where a model image is written.
func Sink(s fmt.Stringer) slog.Attr { return slog.String(KeySink, s.String()) }

// Err records err as a string so both slog and zap render its message.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// Redacted stands in for caller text that must not reach the log.
func Redacted(key string) slog.Attr {
	return slog.String(key, redactedPlaceholder)
}

// Placeholder is the value Redacted records.
func Placeholder() string {
	return redactedPlaceholder
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}
