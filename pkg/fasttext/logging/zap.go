package logging

import (
	"context"
	"log/slog"

	"go.uber.org/zap"
)

// FromZap returns a Logger that writes through z. Passing nil yields a no-op
// logger. Arguments follow the slog convention: alternating keys and values,
// or slog.Attr values such as Redacted.
func FromZap(z *zap.Logger) Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &zapLogger{logger: z}
}

type zapLogger struct {
	logger *zap.Logger
}

func (l *zapLogger) Debug(_ context.Context, msg string, args ...any) {
	l.logger.Debug(msg, zapFields(args)...)
}

func (l *zapLogger) Info(_ context.Context, msg string, args ...any) {
	l.logger.Info(msg, zapFields(args)...)
}

func (l *zapLogger) Warn(_ context.Context, msg string, args ...any) {
	l.logger.Warn(msg, zapFields(args)...)
}

func (l *zapLogger) Error(_ context.Context, msg string, args ...any) {
	l.logger.Error(msg, zapFields(args)...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{logger: l.logger.With(zapFields(args)...)}
}

// zapFields converts slog-style arguments. A dangling value is recorded
// under "!BADKEY", as slog does.
func zapFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch a := args[i].(type) {
		case slog.Attr:
			fields = append(fields, zap.Any(a.Key, a.Value.Resolve().Any()))
		case string:
			if i+1 < len(args) {
				fields = append(fields, zap.Any(a, args[i+1]))
				i++
			} else {
				fields = append(fields, zap.String("!BADKEY", a))
			}
		default:
			fields = append(fields, zap.Any("!BADKEY", a))
		}
	}
	return fields
}
