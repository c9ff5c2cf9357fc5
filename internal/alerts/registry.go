package alerts

import (
	"context"
	"sync"
)

// Factory builds a Manager for a user id.
type Factory func(userID string) *Manager

// Registry hands out one loaded Manager per user, creating it on first
// use. The empty user id owns the anonymous slot.
type Registry struct {
	factory Factory

	mu       sync.Mutex
	managers map[string]*Manager
}

// NewRegistry creates a registry around a manager factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory:  factory,
		managers: make(map[string]*Manager),
	}
}

// Get returns the manager for a user, constructing, loading, and
// starting its sweep on first access.
func (r *Registry) Get(ctx context.Context, userID string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()

	if manager, ok := r.managers[userID]; ok {
		return manager
	}

	manager := r.factory(userID)
	manager.Load(ctx)
	manager.StartSweep(context.Background())
	r.managers[userID] = manager
	return manager
}

// Logout clears a user's notifications and the anonymous slot, then
// releases both managers. Nothing survives the user boundary.
func (r *Registry) Logout(ctx context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range []string{userID, ""} {
		if manager, ok := r.managers[id]; ok {
			manager.Clear(ctx)
			manager.Close()
			delete(r.managers, id)
		} else {
			// Remove the persisted entry even without a live manager.
			stale := r.factory(id)
			stale.Clear(ctx)
		}
	}
}

// Close tears down every manager.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, manager := range r.managers {
		manager.Close()
		delete(r.managers, id)
	}
}
