package pending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pending_auth:"

// RedisStore is a Store backed by Redis, for deployments running more
// than one instance: the provider redirect may land on a different
// instance than the one that issued the authorization URL. Expiry is
// delegated to Redis TTLs and Take relies on GETDEL for atomicity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Put stores the verifier under the state token with the configured TTL.
func (s *RedisStore) Put(ctx context.Context, state, verifier string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+state, verifier, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store pending authorization: %w", err)
	}
	return nil
}

// Take atomically fetches and deletes the verifier for a state token.
func (s *RedisStore) Take(ctx context.Context, state string) (string, error) {
	verifier, err := s.client.GetDel(ctx, redisKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to take pending authorization: %w", err)
	}
	return verifier, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
