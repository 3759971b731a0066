package linkcache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKV adapts a go-redis client to the KV interface.
type redisKV struct {
	client *redis.Client
}

// NewRedisKV wraps client as a KV.
func NewRedisKV(client *redis.Client) KV {
	return &redisKV{client: client}
}

func (r *redisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoKey
		}
		return "", err
	}
	return val, nil
}

func (r *redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisKV) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
