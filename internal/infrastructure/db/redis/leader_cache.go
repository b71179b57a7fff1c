package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/unibague-gradework/orion-program/internal/core/domain"
)

const defaultLeaderTTL = 15 * time.Minute

// LeaderCache caches resolved leader records from the user directory.
// Key format: leader:<user_id>. Cache failures are logged and treated as
// misses; the caller falls through to the directory.
type LeaderCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewLeaderCache creates a LeaderCache wrapping the given Redis client.
// If ttl <= 0, defaultLeaderTTL is used.
func NewLeaderCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *LeaderCache {
	if ttl <= 0 {
		ttl = defaultLeaderTTL
	}
	return &LeaderCache{client: client, ttl: ttl, log: log}
}

func (c *LeaderCache) Get(ctx context.Context, userID string) (*domain.User, bool) {
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("user_id", userID).Msg("leader cache read failed")
		}
		return nil, false
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("leader cache entry corrupt, dropping")
		_ = c.client.Del(ctx, c.key(userID)).Err()
		return nil, false
	}
	return &user, true
}

func (c *LeaderCache) Put(ctx context.Context, user *domain.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", user.IDUser).Msg("leader cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, c.key(user.IDUser), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("user_id", user.IDUser).Msg("leader cache write failed")
	}
}

func (c *LeaderCache) key(userID string) string {
	return fmt.Sprintf("leader:%s", userID)
}
