package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisPresenceCache mirrors chat presence for other processes to read.
// Keys carry a TTL so a crashed instance's users fall offline on their own.
type RedisPresenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPresenceCache(client *redis.Client, ttl time.Duration) *RedisPresenceCache {
	return &RedisPresenceCache{client: client, ttl: ttl}
}

func (r *RedisPresenceCache) SetOnline(ctx context.Context, userID string) error {
	key := fmt.Sprintf("presence:%s", userID)
	return r.client.Set(ctx, key, time.Now().Unix(), r.ttl).Err()
}

func (r *RedisPresenceCache) SetOffline(ctx context.Context, userID string) error {
	key := fmt.Sprintf("presence:%s", userID)
	return r.client.Del(ctx, key).Err()
}

func (r *RedisPresenceCache) IsOnline(ctx context.Context, userID string) (bool, error) {
	key := fmt.Sprintf("presence:%s", userID)

	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
