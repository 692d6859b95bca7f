package internal_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/internal"
)

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, internal.AsHTTPError(nil))
	})

	t.Run("wrapped HTTPError", func(t *testing.T) {
		t.Parallel()
		httpErr := internal.NewHTTPError(http.StatusConflict, "conflict")
		err := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", httpErr))
		require.Same(t, httpErr, internal.AsHTTPError(err))
	})

	t.Run("missing template is 404", func(t *testing.T) {
		t.Parallel()
		e := internal.AsHTTPError(fmt.Errorf("render: %w", internal.ErrTemplateNotFound))
		require.Equal(t, http.StatusNotFound, e.StatusCode())
		require.ErrorIs(t, e, internal.ErrTemplateNotFound)
	})

	t.Run("deadline is 503", func(t *testing.T) {
		t.Parallel()
		e := internal.AsHTTPError(errors.Join(errors.New("query failed"), context.DeadlineExceeded))
		require.Equal(t, http.StatusServiceUnavailable, e.StatusCode())
	})

	t.Run("anything else is 500", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("boom")
		e := internal.AsHTTPError(cause)
		require.Equal(t, http.StatusInternalServerError, e.StatusCode())
		require.Equal(t, "Internal Server Error", e.StatusText())
		require.ErrorIs(t, e, cause)
		require.NotContains(t, e.Error(), "boom")
	})
}

func TestErrMissingParent(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, internal.ErrMissingParent, internal.ErrInvalidState)
}
