package kvstore

import (
	"sync"

	"github.com/go-redis/redis/v8"
)

// Factory hands out the device-local store for a user.
type Factory func(userID string) Store

// NewRedisFactory builds per-user Redis-backed stores.
func NewRedisFactory(client *redis.Client) Factory {
	return func(userID string) Store {
		return NewRedisStore(client, userID)
	}
}

// NewMemoryFactory builds per-user in-memory stores, reusing one store
// per user so all components see the same device state. Used when Redis
// is disabled and in tests.
func NewMemoryFactory() Factory {
	var mu sync.Mutex
	stores := make(map[string]*MemoryStore)

	return func(userID string) Store {
		mu.Lock()
		defer mu.Unlock()
		if store, ok := stores[userID]; ok {
			return store
		}
		store := NewMemoryStore()
		stores[userID] = store
		return store
	}
}
