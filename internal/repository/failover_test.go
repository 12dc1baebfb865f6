package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *mockStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func newFailover() (*FailoverSessionStore, *mockStore, *mockStore) {
	primary := new(mockStore)
	fallback := new(mockStore)
	logger := zerolog.New(io.Discard)
	return NewFailoverSessionStore(primary, fallback, &logger), primary, fallback
}

func TestFailoverSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		store, primary, fallback := newFailover()
		primary.On("CheckRateLimit", ctx, "k", 10, time.Minute).Return(true, nil).Once()

		allowed, err := store.CheckRateLimit(ctx, "k", 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, store.Degraded())
		primary.AssertExpectations(t)
		fallback.AssertNotCalled(t, "CheckRateLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		store, primary, fallback := newFailover()
		primary.On("CheckRateLimit", ctx, "k", 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "k", 10, time.Minute).Return(true, nil).Once()

		allowed, err := store.CheckRateLimit(ctx, "k", 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, store.Degraded())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("AlreadyDownSkipsPrimary", func(t *testing.T) {
		store, primary, fallback := newFailover()
		store.isDown.Store(true)
		store.lastCheck.Store(time.Now().UnixNano())
		fallback.On("IsTokenRevoked", ctx, "jti").Return(true, nil).Once()

		revoked, err := store.IsTokenRevoked(ctx, "jti")
		require.NoError(t, err)
		assert.True(t, revoked)
		primary.AssertNotCalled(t, "IsTokenRevoked", mock.Anything, mock.Anything)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		store, primary, fallback := newFailover()
		store.isDown.Store(true)
		store.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())
		primary.On("IsTokenRevoked", ctx, "jti").Return(false, nil).Once()
		fallback.On("IsTokenRevoked", ctx, "jti").Return(false, nil).Once()

		revoked, err := store.IsTokenRevoked(ctx, "jti")
		require.NoError(t, err)
		assert.False(t, revoked)
		assert.False(t, store.Degraded())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		store, primary, fallback := newFailover()
		store.isDown.Store(true)
		store.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())
		primary.On("CheckRateLimit", ctx, "k", 1, time.Second).Return(false, errors.New("still fail")).Once()
		fallback.On("CheckRateLimit", ctx, "k", 1, time.Second).Return(false, nil).Once()

		allowed, err := store.CheckRateLimit(ctx, "k", 1, time.Second)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.True(t, store.Degraded())
		assert.WithinDuration(t, time.Now(), time.Unix(0, store.lastCheck.Load()), time.Second)
	})

	t.Run("RevokeWritesBoth", func(t *testing.T) {
		store, primary, fallback := newFailover()
		fallback.On("RevokeToken", ctx, "jti", time.Hour).Return(nil).Once()
		primary.On("RevokeToken", ctx, "jti", time.Hour).Return(nil).Once()

		require.NoError(t, store.RevokeToken(ctx, "jti", time.Hour))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RevokePrimaryFailureStillSucceeds", func(t *testing.T) {
		store, primary, fallback := newFailover()
		fallback.On("RevokeToken", ctx, "jti", time.Hour).Return(nil).Once()
		primary.On("RevokeToken", ctx, "jti", time.Hour).Return(errors.New("fail")).Once()

		require.NoError(t, store.RevokeToken(ctx, "jti", time.Hour))
		assert.True(t, store.Degraded())
	})

	t.Run("RevokedInFallbackSeenAfterRecovery", func(t *testing.T) {
		store, primary, fallback := newFailover()
		primary.On("IsTokenRevoked", ctx, "jti").Return(false, nil).Once()
		fallback.On("IsTokenRevoked", ctx, "jti").Return(true, nil).Once()

		revoked, err := store.IsTokenRevoked(ctx, "jti")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}

func TestFailoverWithRealStores(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	primary := NewRedisSessionStore(nil)
	fallback := NewMemorySessionStore()
	store := NewFailoverSessionStore(primary, fallback, &logger)

	require.NoError(t, store.RevokeToken(ctx, "jti", time.Hour))
	revoked, err := store.IsTokenRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, store.Degraded())
}
