package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eringen/portfoliogate/store"
)

// RedisBackend keeps sessions in Redis with a TTL, so expired sessions need
// no cleanup.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisBackend stores sessions under prefix+token.
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, store.Unavailable("redis ping", err)
	}
	return client, nil
}

func (b *RedisBackend) key(id string) string {
	return b.prefix + id
}

func (b *RedisBackend) LoadSession(ctx context.Context, id string) (string, error) {
	data, err := b.client.Get(ctx, b.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", store.Unavailable("redis load session", err)
	}
	return data, nil
}

func (b *RedisBackend) SaveSession(ctx context.Context, id, data string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return b.DeleteSession(ctx, id)
	}
	if err := b.client.Set(ctx, b.key(id), data, ttl).Err(); err != nil {
		return store.Unavailable("redis save session", err)
	}
	return nil
}

func (b *RedisBackend) DeleteSession(ctx context.Context, id string) error {
	if err := b.client.Del(ctx, b.key(id)).Err(); err != nil {
		return store.Unavailable("redis delete session", err)
	}
	return nil
}
