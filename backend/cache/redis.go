// Package cache holds the Redis-backed stores: refresh tokens and the rate
// limiter counters.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"coursemarket/backend/config"
)

func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// RedisTokenStore keeps one refresh token per user under refresh_token:user:<id>,
// expiring together with the token.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func tokenKey(userID uint) string {
	return fmt.Sprintf("refresh_token:user:%d", userID)
}

func (s *RedisTokenStore) Save(ctx context.Context, userID uint, token string, ttl time.Duration) error {
	return s.client.Set(ctx, tokenKey(userID), token, ttl).Err()
}

func (s *RedisTokenStore) Get(ctx context.Context, userID uint) (string, error) {
	val, err := s.client.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *RedisTokenStore) Delete(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, tokenKey(userID)).Err()
}

// LimiterStorage adapts a Redis client to fiber.Storage so that rate limit
// counters are shared between instances.
type LimiterStorage struct {
	client *redis.Client
	prefix string
}

func NewLimiterStorage(client *redis.Client) *LimiterStorage {
	return &LimiterStorage{client: client, prefix: "rate_limit:"}
}

func (s *LimiterStorage) Get(key string) ([]byte, error) {
	val, err := s.client.Get(context.Background(), s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *LimiterStorage) Set(key string, val []byte, exp time.Duration) error {
	if len(key) == 0 || len(val) == 0 {
		return nil
	}
	return s.client.Set(context.Background(), s.prefix+key, val, exp).Err()
}

func (s *LimiterStorage) Delete(key string) error {
	return s.client.Del(context.Background(), s.prefix+key).Err()
}

// Reset drops every limiter key.
func (s *LimiterStorage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op: the client is owned by main.
func (s *LimiterStorage) Close() error {
	return nil
}
