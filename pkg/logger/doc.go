// Package logger builds the portal's [log/slog] logger.
//
// Output is JSON or text on stdout (or any writer), at a configurable level.
// When a Sentry DSN is set, records at warn level and above are also sent to
// Sentry through [github.com/getsentry/sentry-go/slog]; errors become issues.
//
//	log := logger.New(logger.Config{Level: "debug", Format: "text"},
//	    middlewares.RequestIDExtractor(),
//	)
//
// A [ContextExtractor] pulls request-scoped attributes (request id, loop name)
// out of the context passed to the *Context logging methods, so handlers do not
// need to thread them by hand.
//
// [NewNope] returns a logger that discards everything; it is the default for
// library code and tests.
package logger
