package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultSeenKey = "oppscan:seen"

// RedisStore keeps the seen-set in a Redis set. Useful when several hosts
// share one seen-set; SQLite remains the default for single-host setups.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore parses redisURL, verifies connectivity, and returns a
// store backed by the given set key (defaultSeenKey if empty).
func NewRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if key == "" {
		key = defaultSeenKey
	}
	return &RedisStore{client: client, key: key}, nil
}

// Load returns every member of the seen set.
func (s *RedisStore) Load(ctx context.Context) (map[string]struct{}, error) {
	members, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("loading seen keys: %w", err)
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		seen[m] = struct{}{}
	}
	return seen, nil
}

// Save adds the given keys to the seen set. SADD is idempotent.
func (s *RedisStore) Save(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	if err := s.client.SAdd(ctx, s.key, members...).Err(); err != nil {
		return fmt.Errorf("saving seen keys: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
