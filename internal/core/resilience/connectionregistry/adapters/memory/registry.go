// Package memory is an in-process ports.Registry for tests and single-node
// development. TTL expiry is evaluated lazily on read, mirroring how the
// redis adapter relies on key expiry rather than an owned timer.
package memory

import (
	"context"
	"sync"
	"time"
)

// ttl must exceed the expected heartbeat interval by at least 2x; callers
// heartbeat well inside this window.
const defaultTTL = 90 * time.Second

type pairKey struct {
	userID, serverID string
}

type Registry struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   func() time.Time
	entries map[pairKey]time.Time // expires_at
}

func NewRegistry(ttl time.Duration, clock func() time.Time) *Registry {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Registry{ttl: ttl, clock: clock, entries: make(map[pairKey]time.Time)}
}

func (r *Registry) Register(ctx context.Context, userID, serverID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[pairKey{userID, serverID}] = r.clock().Add(r.ttl)
	return nil
}

func (r *Registry) Unregister(ctx context.Context, userID, serverID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, pairKey{userID, serverID})
	return nil
}

func (r *Registry) Heartbeat(ctx context.Context, userID, serverID string) error {
	return r.Register(ctx, userID, serverID)
}

func (r *Registry) FindServers(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictExpiredLocked()
	var servers []string
	for key := range r.entries {
		if key.userID == userID {
			servers = append(servers, key.serverID)
		}
	}
	return servers, nil
}

func (r *Registry) IsConnected(ctx context.Context, userID string) (bool, error) {
	servers, err := r.FindServers(ctx, userID)
	return len(servers) > 0, err
}

func (r *Registry) GetServerConnections(ctx context.Context, serverID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictExpiredLocked()
	var users []string
	for key := range r.entries {
		if key.serverID == serverID {
			users = append(users, key.userID)
		}
	}
	return users, nil
}

func (r *Registry) CleanupServer(ctx context.Context, serverID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for key := range r.entries {
		if key.serverID == serverID {
			delete(r.entries, key)
			count++
		}
	}
	return count, nil
}

// evictExpiredLocked must be called with mu held.
func (r *Registry) evictExpiredLocked() {
	now := r.clock()
	for key, expiresAt := range r.entries {
		if now.After(expiresAt) {
			delete(r.entries, key)
		}
	}
}
