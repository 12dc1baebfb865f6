package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionStore(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	store := NewRedisSessionStore(client)
	ctx := context.Background()

	t.Run("RevokeAndCheck", func(t *testing.T) {
		require.NoError(t, store.RevokeToken(ctx, "jti-1", time.Hour))

		revoked, err := store.IsTokenRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
		assert.True(t, s.Exists("revoked:jti-1"))

		revoked, err = store.IsTokenRevoked(ctx, "jti-unknown")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("RevocationExpires", func(t *testing.T) {
		require.NoError(t, store.RevokeToken(ctx, "jti-2", time.Minute))
		s.FastForward(time.Minute + time.Second)

		revoked, err := store.IsTokenRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("ExpiredTokenNotStored", func(t *testing.T) {
		require.NoError(t, store.RevokeToken(ctx, "jti-3", 0))
		assert.False(t, s.Exists("revoked:jti-3"))
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "advisor:789"
		limit := 2
		window := time.Second

		allowed, err := store.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = store.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		// Third request exceeds limit
		allowed, err = store.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = store.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		store := NewRedisSessionStore(nil)
		_, err := store.IsTokenRevoked(ctx, "x")
		assert.ErrorContains(t, err, "redis client is nil")
		assert.Error(t, store.RevokeToken(ctx, "x", time.Minute))
		_, err = store.CheckRateLimit(ctx, "x", 1, time.Minute)
		assert.Error(t, err)
	})

	t.Run("ServerDown", func(t *testing.T) {
		down, err := miniredis.Run()
		require.NoError(t, err)
		downClient := redis.NewClient(&redis.Options{Addr: down.Addr(), MaxRetries: -1})
		defer downClient.Close()
		down.Close()

		_, err = NewRedisSessionStore(downClient).IsTokenRevoked(ctx, "x")
		assert.Error(t, err)
		assert.Error(t, Ping(ctx, downClient))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
		assert.Error(t, Ping(ctx, nil))
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(nil))
	})
}
