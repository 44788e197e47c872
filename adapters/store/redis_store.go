package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/truthmemes/gatekeeper/core"
	"github.com/truthmemes/gatekeeper/ports"
)

// RedisNonceStore is a Redis implementation of the NonceStore interface.
// SetNX gives the atomic create-if-absent semantics nonce uniqueness
// depends on, and the key TTL handles natural expiry.
type RedisNonceStore struct {
	client *redis.Client
	prefix string
}

// NewRedisNonceStore creates a new Redis nonce store.
func NewRedisNonceStore(client *redis.Client) ports.NonceStore {
	return &RedisNonceStore{
		client: client,
		prefix: "gatekeeper:nonce:",
	}
}

// Create persists a nonce under a uniqueness constraint.
func (s *RedisNonceStore) Create(ctx context.Context, value string, expiresAt time.Time) error {
	key := s.prefix + value

	created, err := s.client.SetNX(ctx, key, "1", time.Until(expiresAt)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	if !created {
		return core.ErrNonceExists
	}

	return nil
}

// Exists reports whether a nonce is live.
func (s *RedisNonceStore) Exists(ctx context.Context, value string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+value).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return n > 0, nil
}

// Delete consumes a nonce.
func (s *RedisNonceStore) Delete(ctx context.Context, value string) error {
	n, err := s.client.Del(ctx, s.prefix+value).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	if n == 0 {
		return core.ErrNonceNotFound
	}
	return nil
}

// Ping checks Redis connectivity.
func (s *RedisNonceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// RedisRateCounter is a Redis implementation of the RateCounter interface
// using fixed windows. INCR is atomic on the server, so concurrent bursts
// from the same key are never undercounted.
type RedisRateCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisRateCounter creates a new Redis rate counter.
func NewRedisRateCounter(client *redis.Client) ports.RateCounter {
	return &RedisRateCounter{
		client: client,
		prefix: "gatekeeper:throttle:",
	}
}

// Incr bumps the counter for key and returns the new count. The expiry is
// only set when absent so the window is anchored to the first hit.
func (s *RedisRateCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := s.prefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}

	return incr.Val(), nil
}
