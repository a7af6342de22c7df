package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisKV struct {
	rdb *redis.Client
}

// NewRedisKV connects to Redis at addr and verifies the connection.
func NewRedisKV(addr string) (KV, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &redisKV{rdb: rdb}, nil
}

func (r *redisKV) Get(ctx context.Context, key string) (string, error) {
	value, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *redisKV) Set(ctx context.Context, key, value string) error {
	// Conversation state has no natural expiry; keys live until overwritten.
	return r.rdb.Set(ctx, key, value, 0).Err()
}

func (r *redisKV) Close() error {
	return r.rdb.Close()
}
