package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct{ *redis.Client }

func NewRedis(addr, pass string, db int) *RedisClient {
	return &RedisClient{redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (c *RedisClient) Ping(ctx context.Context) error { return c.Client.Ping(ctx).Err() }

// Helpers
func SetNX(ctx context.Context, r *RedisClient, key string, val any, ttl time.Duration) (bool, error) {
	return r.SetNX(ctx, key, val, ttl).Result()
}

// RedisLock implements domain.BootstrapLock with SET NX PX
type RedisLock struct {
	client *RedisClient
	prefix string
}

func NewRedisLock(client *RedisClient) *RedisLock {
	return &RedisLock{client: client, prefix: "lock:"}
}

// Acquire returns false when another holder owns the key
func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return SetNX(ctx, l.client, l.prefix+key, time.Now().UTC().Format(time.RFC3339Nano), ttl)
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
