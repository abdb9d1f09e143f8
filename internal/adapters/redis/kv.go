package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// KVRedis دسترسی سطح پایین key-value (کش تصاویر، شمارنده‌ها)
type KVRedis struct {
	Client *redis.Client
}

func NewKVRedis(client *redis.Client) *KVRedis {
	return &KVRedis{Client: client}
}

func (r *KVRedis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (r *KVRedis) Set(ctx context.Context, key, value string) error {
	return r.Client.Set(ctx, key, value, 0).Err()
}

func (r *KVRedis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.Client.Expire(ctx, key, ttl).Err()
}

func (r *KVRedis) IncrBy(ctx context.Context, key string, n int64) (int64, error) {
	return r.Client.IncrBy(ctx, key, n).Result()
}

func (r *KVRedis) Del(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}
