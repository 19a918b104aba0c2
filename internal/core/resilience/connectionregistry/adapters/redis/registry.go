// Package redis is the go-redis-backed ports.Registry for the multi-server
// connection registry. Each (user_id, server_id) pair is
// tracked by a TTL-bearing anchor key; reverse-index sets let FindServers
// and GetServerConnections avoid a full key scan, with membership
// re-validated against the anchor key on every read so an expired pair
// never surfaces as connected even before its index entry is swept.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "wayfinder:conn:"

type Registry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRegistry constructs a Registry. ttl MUST exceed the caller's heartbeat
// interval by at least 2x. The registry itself does not validate this;
// callers are expected to configure it correctly.
func NewRegistry(client *redis.Client, ttl time.Duration) *Registry {
	return &Registry{client: client, ttl: ttl}
}

func anchorKey(userID, serverID string) string {
	return keyPrefix + "pair:" + userID + ":" + serverID
}

func userServersKey(userID string) string {
	return keyPrefix + "user:" + userID
}

func serverUsersKey(serverID string) string {
	return keyPrefix + "server:" + serverID
}

func (r *Registry) Register(ctx context.Context, userID, serverID string) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, anchorKey(userID, serverID), "1", r.ttl)
	pipe.SAdd(ctx, userServersKey(userID), serverID)
	pipe.SAdd(ctx, serverUsersKey(serverID), userID)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("connectionregistry: register: %w", err)
	}
	return nil
}

func (r *Registry) Unregister(ctx context.Context, userID, serverID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, anchorKey(userID, serverID))
	pipe.SRem(ctx, userServersKey(userID), serverID)
	pipe.SRem(ctx, serverUsersKey(serverID), userID)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("connectionregistry: unregister: %w", err)
	}
	return nil
}

func (r *Registry) Heartbeat(ctx context.Context, userID, serverID string) error {
	if err := r.client.Expire(ctx, anchorKey(userID, serverID), r.ttl).Err(); err != nil {
		return fmt.Errorf("connectionregistry: heartbeat: %w", err)
	}
	return nil
}

// FindServers returns every server_id still within its anchor's TTL for
// userID, pruning stale index entries it finds along the way.
func (r *Registry) FindServers(ctx context.Context, userID string) ([]string, error) {
	candidates, err := r.client.SMembers(ctx, userServersKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("connectionregistry: find_servers: %w", err)
	}
	return r.liveMembers(ctx, candidates, func(serverID string) (string, string) {
		return anchorKey(userID, serverID), serverUsersKey(serverID)
	}, userServersKey(userID), userID)
}

func (r *Registry) IsConnected(ctx context.Context, userID string) (bool, error) {
	servers, err := r.FindServers(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(servers) > 0, nil
}

// GetServerConnections returns every user_id still within its anchor's TTL
// on serverID.
func (r *Registry) GetServerConnections(ctx context.Context, serverID string) ([]string, error) {
	candidates, err := r.client.SMembers(ctx, serverUsersKey(serverID)).Result()
	if err != nil {
		return nil, fmt.Errorf("connectionregistry: get_server_connections: %w", err)
	}
	return r.liveMembers(ctx, candidates, func(userID string) (string, string) {
		return anchorKey(userID, serverID), userServersKey(userID)
	}, serverUsersKey(serverID), serverID)
}

// liveMembers checks each candidate's anchor key for existence, pruning the
// reverse index (both the set this read came from and the peer set named by
// anchorAndPeerIndex) for any candidate whose anchor has already expired.
func (r *Registry) liveMembers(ctx context.Context, candidates []string, anchorAndPeerIndex func(member string) (anchor, peerIndex string), sourceIndex, peerMember string) ([]string, error) {
	live := make([]string, 0, len(candidates))
	for _, member := range candidates {
		anchor, peerIndex := anchorAndPeerIndex(member)
		exists, err := r.client.Exists(ctx, anchor).Result()
		if err != nil {
			return nil, fmt.Errorf("connectionregistry: exists check: %w", err)
		}
		if exists == 1 {
			live = append(live, member)
			continue
		}
		pipe := r.client.TxPipeline()
		pipe.SRem(ctx, sourceIndex, member)
		pipe.SRem(ctx, peerIndex, peerMember)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("connectionregistry: prune stale index: %w", err)
		}
	}
	return live, nil
}

// CleanupServer removes every tracked connection for serverID, returning
// how many were removed. Called on server shutdown.
func (r *Registry) CleanupServer(ctx context.Context, serverID string) (int, error) {
	users, err := r.client.SMembers(ctx, serverUsersKey(serverID)).Result()
	if err != nil {
		return 0, fmt.Errorf("connectionregistry: cleanup_server: %w", err)
	}
	count := 0
	for _, userID := range users {
		if err := r.Unregister(ctx, userID, serverID); err != nil {
			return count, err
		}
		count++
	}
	if err := r.client.Del(ctx, serverUsersKey(serverID)).Err(); err != nil {
		return count, fmt.Errorf("connectionregistry: cleanup_server: %w", err)
	}
	return count, nil
}
