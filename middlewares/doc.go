// Package middlewares provides net/http middleware for portal sites. Every
// middleware is a plain func(http.Handler) http.Handler, so it plugs into
// portal.WithMiddleware as well as any other router.
//
// # Request ID
//
// RequestID assigns a unique ID to each request for tracing and debugging.
// It reuses an ID from incoming headers or generates a ULID.
//
//	p := portal.New(s, s,
//	    portal.WithLogger(logger.Config{}, "site", middlewares.RequestIDExtractor()),
//	    portal.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover turns panics into a logged 500 response carrying the recovered
// value and stack.
//
//	portal.WithMiddleware(
//	    middlewares.RequestID(),
//	    middlewares.Recover(middlewares.WithRecoverLogger(log)),
//	)
//
// # Timeout
//
// Timeout bounds the request context, so store queries issued while a page
// renders are cancelled once the deadline passes.
//
//	portal.WithMiddleware(middlewares.Timeout(10 * time.Second))
package middlewares
