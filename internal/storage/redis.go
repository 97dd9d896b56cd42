package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the link under a single Redis string key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore parses a redis:// URL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{client: client, key: key}, nil
}

// LastLink returns the stored link. redis.Nil means no history.
func (rs *RedisStore) LastLink(ctx context.Context) (string, bool, error) {
	link, err := rs.client.Get(ctx, rs.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state: %w", err)
	}
	if link == "" {
		return "", false, nil
	}
	return link, true, nil
}

// SaveLink overwrites the key without expiry.
func (rs *RedisStore) SaveLink(ctx context.Context, link string) error {
	if err := rs.client.Set(ctx, rs.key, link, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Close closes the client.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

var _ StateStore = (*RedisStore)(nil)
