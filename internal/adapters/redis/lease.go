package redis

import (
	"context"
	"fmt"

	"time"

	"github.com/go-redis/redis/v8"
)

// releaseScript deletes the lease key only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// LeaseRedis قفل کوتاه‌مدت با TTL (برای جلوگیری از ثبت دوباره‌ی jobها)
type LeaseRedis struct {
	Client *redis.Client
	Key    string
}

func NewLeaseRedis(client *redis.Client, key string) *LeaseRedis {
	return &LeaseRedis{Client: client, Key: key}
}

func (l *LeaseRedis) Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	ok, err := l.Client.SetNX(ctx, l.Key, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", l.Key, err)
	}
	return ok, nil
}

func (l *LeaseRedis) Release(ctx context.Context, owner string) error {
	if err := releaseScript.Run(ctx, l.Client, []string{l.Key}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lease %s: %w", l.Key, err)
	}
	return nil
}
