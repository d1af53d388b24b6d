package store

import (
	"context"
	"errors"
	"fmt"

	"shopify-product-editor/internal/domain"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "shop_token:"

// RedisStore keeps shop tokens in Redis under a common key prefix, for
// deployments where the service runs more than one replica.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed token store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Get returns the stored token for shop, or domain.ErrTokenNotFound.
func (s *RedisStore) Get(ctx context.Context, shop string) (string, error) {
	token, err := s.rdb.Get(ctx, tokenKeyPrefix+shop).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// Set stores the token for shop without expiry; tokens only change on
// re-install.
func (s *RedisStore) Set(ctx context.Context, shop string, accessToken string) error {
	if err := s.rdb.Set(ctx, tokenKeyPrefix+shop, accessToken, 0).Err(); err != nil {
		return fmt.Errorf("failed to set token: %w", err)
	}
	return nil
}
