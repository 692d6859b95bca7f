package internal

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrInvalidState is returned on structural misuse of loops and the ambient
	// stack: re-entering an active loop or exiting out of order.
	ErrInvalidState = errors.New("portal: invalid loop state")

	// ErrKeyNotFound is returned by Zones.Field for keys other than type, id and terms.
	ErrKeyNotFound = errors.New("portal: zone key not found")

	// ErrMissingParent is returned when an attachment loop starts with neither an
	// ambient item nor an explicit post_parent.
	ErrMissingParent = errors.Join(ErrInvalidState, errors.New("portal: attachment loop without parent"))

	// ErrNoScope is returned when a request context carries no portal scope.
	ErrNoScope = errors.New("portal: no scope in context")

	// ErrTemplateNotFound is returned when no theme file can render a request.
	ErrTemplateNotFound = errors.New("portal: template not found")
)

// HTTPError is an error with an HTTP status code, rendered by the portal
// handler as a plain status page.
type HTTPError struct {
	// Err is the underlying error, logged but never shown.
	Err error

	// Message is the user-facing error message.
	Message string

	// Code is the HTTP status code.
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{
		Code:    code,
		Message: message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// AsHTTPError extracts the HTTPError from an error chain.
// Errors that carry none become a 500, a 404 for ErrTemplateNotFound or a 503
// when the request ran out of time.
func AsHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	if errors.Is(err, ErrTemplateNotFound) {
		return ErrNotFound(http.StatusText(http.StatusNotFound), WithError(err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewHTTPError(http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), WithError(err))
	}
	return ErrInternal(http.StatusText(http.StatusInternalServerError), WithError(err))
}
