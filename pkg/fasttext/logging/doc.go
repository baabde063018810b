// Package logging provides the logging facade used by the fasttext wrapper.
//
// Logger wraps the context-aware subset of log/slog. New binds it to a
// *slog.Logger, and FromZap binds it to a *zap.Logger for programs that
// already log through zap:
//
//	logger := logging.New(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
//	m, err := fasttext.New(fasttext.WithLogger(logger))
//
// Input text can be classified, so the wrapper never logs it. It logs
// Redacted("text") instead, which renders as text="[redacted]".
package logging
