package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceTTL = 2 * time.Minute

// PresenceManager keeps one Redis key per live connection so "is this user
// online" survives gateway restarts and works across nodes. Keys carry a
// TTL and are refreshed from the connection's pong handler, so a crashed
// gateway cannot leak a user online forever.
type PresenceManager struct {
	rdb    *redis.Client
	nodeID string
	ttl    time.Duration
}

func NewPresenceManager(rdb *redis.Client, nodeID string) *PresenceManager {
	return &PresenceManager{rdb: rdb, nodeID: nodeID, ttl: presenceTTL}
}

func (p *PresenceManager) connKey(userID, connID string) string {
	return fmt.Sprintf("presence:%s:c:%s", userID, connID)
}

func (p *PresenceManager) Online(ctx context.Context, userID, connID string) error {
	return p.rdb.Set(ctx, p.connKey(userID, connID), p.nodeID, p.ttl).Err()
}

func (p *PresenceManager) Offline(ctx context.Context, userID, connID string) error {
	return p.rdb.Del(ctx, p.connKey(userID, connID)).Err()
}

// Touch renews the connection's TTL; wired to the websocket pong handler.
func (p *PresenceManager) Touch(ctx context.Context, userID, connID string) error {
	return p.rdb.Expire(ctx, p.connKey(userID, connID), p.ttl).Err()
}

// IsOnline reports whether the user has at least one live connection on any
// node.
func (p *PresenceManager) IsOnline(ctx context.Context, userID string) (bool, error) {
	iter := p.rdb.Scan(ctx, 0, fmt.Sprintf("presence:%s:c:*", userID), 1).Iterator()
	for iter.Next(ctx) {
		return true, nil
	}
	return false, iter.Err()
}
