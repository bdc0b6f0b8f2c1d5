package vault

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "vault:v1:"

// RedisStore keeps vaulted card references in Redis. Keys carry no TTL: the
// reference lives until the shopper saves a different card or deletes it.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed vault store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the stored card reference for the shopper key.
func (s *RedisStore) Get(ctx context.Context, shopperKey string) (Ref, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+shopperKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Ref{}, ErrNoVaultedCard
		}
		return Ref{}, err
	}
	return Ref{VaultedShopperID: val}, nil
}

// Put stores the card reference, replacing any previous one for the key.
func (s *RedisStore) Put(ctx context.Context, shopperKey string, ref Ref) error {
	return s.client.Set(ctx, redisKeyPrefix+shopperKey, ref.VaultedShopperID, 0).Err()
}

// Delete removes the card reference for the shopper key if present.
func (s *RedisStore) Delete(ctx context.Context, shopperKey string) error {
	return s.client.Del(ctx, redisKeyPrefix+shopperKey).Err()
}
