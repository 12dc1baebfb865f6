package repository

import (
	"context"
	"sync/atomic"
	"time"

	"autoassist/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverSessionStore uses the primary store until it fails, then serves
// from the fallback and retries the primary once per recoveryInterval.
type FailoverSessionStore struct {
	primary   domain.SessionStore
	fallback  domain.SessionStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSessionStore(primary, fallback domain.SessionStore, logger *zerolog.Logger) *FailoverSessionStore {
	return &FailoverSessionStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Degraded reports whether calls are currently served by the fallback.
func (r *FailoverSessionStore) Degraded() bool {
	return r.isDown.Load()
}

func (r *FailoverSessionStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverSessionStore) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary session store failed, falling back to memory")
	}
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionStore) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session store recovered")
	}
}

func (r *FailoverSessionStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	// Revocations always land in the fallback too so they survive a later outage.
	if err := r.fallback.RevokeToken(ctx, tokenID, ttl); err != nil {
		return err
	}
	if r.usePrimary() {
		if err := r.primary.RevokeToken(ctx, tokenID, ttl); err != nil {
			r.markDown(err)
			return nil
		}
		r.markUp()
	}
	return nil
}

func (r *FailoverSessionStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r.usePrimary() {
		revoked, err := r.primary.IsTokenRevoked(ctx, tokenID)
		if err == nil {
			r.markUp()
			if revoked {
				return true, nil
			}
			return r.fallback.IsTokenRevoked(ctx, tokenID)
		}
		r.markDown(err)
	}
	return r.fallback.IsTokenRevoked(ctx, tokenID)
}

func (r *FailoverSessionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
