package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("hash verifies against the original", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		assert.NotEqual(t, "correct horse battery staple", hash)
		assert.True(t, VerifyPassword(hash, "correct horse battery staple"))
	})

	t.Run("wrong password fails verification", func(t *testing.T) {
		hash, err := HashPassword("secret-one")
		require.NoError(t, err)
		assert.False(t, VerifyPassword(hash, "secret-two"))
	})

	t.Run("same password hashes differently each time", func(t *testing.T) {
		first, err := HashPassword("repeatable")
		require.NoError(t, err)
		second, err := HashPassword("repeatable")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("rejects passwords over 72 bytes", func(t *testing.T) {
		_, err := HashPassword(strings.Repeat("x", 73))
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})

	t.Run("accepts exactly 72 bytes", func(t *testing.T) {
		hash, err := HashPassword(strings.Repeat("x", 72))
		require.NoError(t, err)
		assert.True(t, VerifyPassword(hash, strings.Repeat("x", 72)))
	})
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "whatever"))
}
