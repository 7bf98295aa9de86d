package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Parallel()

	err := New(NotFound, "object missing")
	assert.Equal(t, NotFound, err.Kind)
	assert.Equal(t, "object missing", err.Message)
	assert.False(t, err.Retryable)
	assert.False(t, err.Timestamp.IsZero())
}

func TestRetryableDefaults(t *testing.T) {
	t.Parallel()

	assert.True(t, New(Transport, "dial failed").Retryable)
	assert.False(t, New(NotFound, "missing").Retryable)
	assert.False(t, New(Authorize, "no host").Retryable)
}

func TestErrorString(t *testing.T) {
	t.Parallel()

	plain := New(InvalidData, "bad discriminant")
	assert.Equal(t, "INVALID_DATA: bad discriminant", plain.Error())

	withComponent := New(Closed, "handle closed").WithComponent("s3fs")
	assert.Equal(t, "[s3fs] CLOSED: handle closed", withComponent.Error())

	withBoth := New(Transport, "dial tcp: timeout").
		WithComponent("s3fs").
		WithOperation("GetObject")
	assert.Equal(t, "[s3fs:GetObject] TRANSPORT: dial tcp: timeout", withBoth.Error())
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection refused")
	wrapped := New(Transport, "put failed").WithCause(cause)

	assert.Equal(t, cause, wrapped.Unwrap())
}

func TestIs(t *testing.T) {
	t.Parallel()

	err := New(NotFound, "no such key").WithComponent("s3fs")
	wrapped := fmt.Errorf("list failed: %w", err)

	assert.True(t, Is(wrapped, NotFound))
	assert.False(t, Is(wrapped, Closed))
	assert.False(t, Is(fmt.Errorf("plain error"), NotFound))
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	err := New(Unsupported, "link unavailable on s3").WithContext("path", "a/b.txt")
	assert.Equal(t, "a/b.txt", err.Context["path"])
}
