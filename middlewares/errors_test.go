package middlewares_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/middlewares"
)

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	pe := &middlewares.PanicError{Value: "boom"}
	te := &middlewares.TimeoutError{Duration: time.Second}

	got, ok := middlewares.AsPanicError(fmt.Errorf("wrapped: %w", pe))
	require.True(t, ok)
	assert.Same(t, pe, got)
	assert.Equal(t, "panic: boom", pe.Error())
	assert.False(t, middlewares.IsPanicError(te))

	assert.True(t, middlewares.IsTimeoutError(fmt.Errorf("wrapped: %w", te)))
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode())
	assert.Equal(t, "request timeout after 1s", te.Error())

	_, ok = middlewares.AsTimeoutError(errors.New("other"))
	assert.False(t, ok)

	assert.ErrorIs(t, te, context.DeadlineExceeded)
	assert.NoError(t, pe.Unwrap())
	assert.ErrorIs(t, &middlewares.PanicError{Value: sql.ErrConnDone}, sql.ErrConnDone)
}
