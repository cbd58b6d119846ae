// Package logger builds the application's slog.Logger.
//
// New reads a Config (level, json or text format, optional Sentry DSN) and
// wraps the handler in a LogHandlerDecorator so request scoped values such as
// the request id are attached to every record logged with a context:
//
//	log := logger.New(cfg.Log, logger.WithExtractors(middlewares.RequestIDExtractor()))
//	log.InfoContext(r.Context(), "order placed", slog.Int64("order_id", id))
//
// With a Sentry DSN configured, warnings and errors are mirrored to Sentry;
// errors become issues. NewNope discards everything and is the default for
// components that were not given a logger.
package logger
