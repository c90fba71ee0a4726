package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylistImpl implements domain.TokenDenylist using Redis key expiry
type TokenDenylistImpl struct {
	client *redis.Client
	prefix string
}

// NewTokenDenylist creates a new denylist
func NewTokenDenylist(client *redis.Client) *TokenDenylistImpl {
	return &TokenDenylistImpl{
		client: client,
		prefix: "revoked:",
	}
}

// Revoke implements domain.TokenDenylist. A non-positive ttl means the token
// already expired, so there is nothing to record.
func (r *TokenDenylistImpl) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.prefix+tokenID, 1, ttl).Err()
}

// IsRevoked implements domain.TokenDenylist
func (r *TokenDenylistImpl) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, r.prefix+tokenID).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
