package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWithHint(t *testing.T) {
	err := New("error")
	withHint := WithHint(err, "try this fix")

	hints := GetAllHints(withHint)
	require.Len(t, hints, 1)
	assert.Equal(t, "try this fix", hints[0])
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.Nil(t, WithDetail(nil, "detail"))
	assert.Nil(t, ToAppError(nil))
}

func TestNotFound(t *testing.T) {
	err := NewNotFoundError("snapshot %s", "abc")
	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), "snapshot abc")
	assert.False(t, IsNotFoundError(New("other")))
}

func TestCodeRetryable(t *testing.T) {
	assert.False(t, CodeAuthRequired.Retryable())
	assert.False(t, CodeAuthFailed.Retryable())

	for _, code := range []Code{CodeQueryError, CodeNotFound, CodeTimeout, CodeServerError,
		CodeCORSBlocked, CodeNetworkError, CodeInvalidResponse, CodeUnknown} {
		assert.True(t, code.Retryable(), "code %s", code)
	}
}

func TestCodeClass(t *testing.T) {
	assert.Equal(t, ClassClient, CodeAuthFailed.Class())
	assert.Equal(t, ClassClient, CodeQueryError.Class())
	assert.Equal(t, ClassEnvironment, CodeTimeout.Class())
	assert.Equal(t, ClassEnvironment, CodeInvalidResponse.Class())
	assert.Equal(t, ClassStructural, CodeCORSBlocked.Class())
	assert.Equal(t, ClassUnknown, CodeUnknown.Class())
}

func TestAppError(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = prev })

	cause := New("connection reset")
	appErr := NewAppError(CodeNetworkError, "Network request failed").
		WithDetails("POST http://example.org/sparql").
		WithCause(cause)

	assert.Equal(t, fixed, appErr.Timestamp)
	assert.Equal(t, "NETWORK_ERROR: Network request failed (POST http://example.org/sparql)", appErr.Error())
	assert.True(t, Is(appErr, cause))

	wrapped := Wrap(appErr, "probe named graphs")
	found, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, appErr, found)
	assert.Equal(t, CodeNetworkError, CodeOf(wrapped))
}

func TestToAppError(t *testing.T) {
	t.Run("passes through classified errors", func(t *testing.T) {
		appErr := NewAppError(CodeAuthFailed, "Access denied")
		assert.Same(t, appErr, ToAppError(Wrap(appErr, "outer")))
	})

	t.Run("maps deadline to timeout", func(t *testing.T) {
		appErr := ToAppError(Wrap(context.DeadlineExceeded, "query"))
		assert.Equal(t, CodeTimeout, appErr.Code)
		assert.True(t, Is(appErr, context.DeadlineExceeded))
	})

	t.Run("maps cancellation to unknown", func(t *testing.T) {
		appErr := ToAppError(context.Canceled)
		assert.Equal(t, CodeUnknown, appErr.Code)
		assert.Equal(t, "Request was cancelled", appErr.Message)
	})

	t.Run("keeps hints", func(t *testing.T) {
		appErr := ToAppError(WithHint(New("boom"), "check the endpoint URL"))
		assert.Equal(t, CodeUnknown, appErr.Code)
		assert.Equal(t, "check the endpoint URL", appErr.Hint)
		assert.Equal(t, "boom", appErr.Details)
	})
}

func ExampleWithHint() {
	err := New("timeout")
	err = WithHint(err, "try increasing the timeout value")

	hints := GetAllHints(err)
	fmt.Println(hints[0])
	// Output: try increasing the timeout value
}
