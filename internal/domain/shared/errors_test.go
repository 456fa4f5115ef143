package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(NewNotFound("gone"), CodeNotFound))
	assert.False(t, IsCode(NewNotFound("gone"), CodeConflict))
	assert.False(t, IsCode(errors.New("plain"), CodeInternal))
	assert.False(t, IsCode(nil, CodeNotFound))
}

func TestWrapInternal(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, WrapInternal(nil, "ignored"))
	})

	t.Run("domain errors pass through unchanged", func(t *testing.T) {
		original := NewConflict("duplicate")
		wrapped := WrapInternal(original, "something failed")
		assert.Same(t, original, wrapped)
	})

	t.Run("unexpected errors become internal with cause retained", func(t *testing.T) {
		cause := errors.New("connection reset")
		wrapped := WrapInternal(cause, "query failed")

		var de *DomainError
		require.ErrorAs(t, wrapped, &de)
		assert.Equal(t, CodeInternal, de.Code)
		assert.Equal(t, "query failed", de.Message)
		assert.ErrorIs(t, wrapped, cause)
	})
}
