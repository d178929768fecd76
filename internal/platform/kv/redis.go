package kv

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a redis-backed key-value store.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		if cfg.Namespace != "" {
			prefix = cfg.Namespace + ":"
		} else {
			prefix = "portfolio:"
		}
	}

	return &redisStore{
		client: client,
		prefix: prefix,
	}, nil
}

func (s *redisStore) key(key string) string {
	return s.prefix + key
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	// Records carry their own expiry semantics; no TTL at the store level.
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *redisStore) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisStore) Stats(ctx context.Context) (map[string]any, error) {
	var cursor uint64
	total := 0
	pattern := s.prefix + "*"
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		total += len(keys)
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return map[string]any{
		"type":   "redis",
		"total":  total,
		"prefix": strings.TrimSuffix(s.prefix, ":"),
	}, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
