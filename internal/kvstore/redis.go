package kvstore

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// RedisStore persists device-local keys in Redis under a per-user prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store namespaced to one user's device state.
func NewRedisStore(client *redis.Client, userID string) *RedisStore {
	prefix := "device:anonymous:"
	if userID != "" {
		prefix = "device:" + userID + ":"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a value, reporting whether the key exists.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores a value without expiry; pruning is the callers' concern.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

// Delete removes a key; missing keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
