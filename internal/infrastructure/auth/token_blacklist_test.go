package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()

	t.Run("added jti is blacklisted", func(t *testing.T) {
		bl := NewMemoryTokenBlacklist()
		require.NoError(t, bl.Add(ctx, "jti-1", time.Minute))

		blacklisted, err := bl.IsBlacklisted(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, blacklisted)
	})

	t.Run("unknown jti is not blacklisted", func(t *testing.T) {
		bl := NewMemoryTokenBlacklist()
		blacklisted, err := bl.IsBlacklisted(ctx, "never-added")
		require.NoError(t, err)
		assert.False(t, blacklisted)
	})

	t.Run("entries expire with their ttl", func(t *testing.T) {
		bl := NewMemoryTokenBlacklist()
		require.NoError(t, bl.Add(ctx, "short-lived", 10*time.Millisecond))

		time.Sleep(25 * time.Millisecond)

		blacklisted, err := bl.IsBlacklisted(ctx, "short-lived")
		require.NoError(t, err)
		assert.False(t, blacklisted)
	})

	t.Run("non-positive ttl is ignored", func(t *testing.T) {
		bl := NewMemoryTokenBlacklist()
		require.NoError(t, bl.Add(ctx, "already-expired", 0))

		blacklisted, err := bl.IsBlacklisted(ctx, "already-expired")
		require.NoError(t, err)
		assert.False(t, blacklisted)
	})
}
