package middlewares

import (
	"context"
	"net/http"
	"time"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// Timeout returns middleware that cancels the request context after timeout.
// Handlers observe the deadline through r.Context(); nothing is written on
// their behalf. context.Cause of the cancelled context is a *TimeoutError.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeoutCause(r.Context(), timeout, &TimeoutError{Duration: timeout})
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
