package store

import (
	"context"
	"time"

	"fundsync/internal/core/record"
)

// CacheStore پورت برای نگهداری رکوردهای کش و ایندکس پست‌های subscribe شده
//
// The store never retries internally; retry cadence belongs to the calling
// job's next tick.
type CacheStore interface {
	// Get returns nil, nil when no record exists for the post.
	Get(ctx context.Context, postID string) (*record.CacheRecord, error)
	Set(ctx context.Context, postID string, rec *record.CacheRecord) error
	// Remove deletes the record and drops the post from the subscribed index.
	Remove(ctx context.Context, postID string) error
	// RemoveFromIndex drops the post from the subscribed index but keeps the
	// record for manual inspection.
	RemoveFromIndex(ctx context.Context, postID string) error
	// ListSubscribed returns a snapshot of subscribed post ids. No ordering
	// guarantee.
	ListSubscribed(ctx context.Context) ([]string, error)
	// AddOrUpdate adds the post to the subscribed index; a zero endDate means
	// the fundraiser has no end date.
	AddOrUpdate(ctx context.Context, postID string, endDate time.Time) error
}

// KV پورت سطح پایین key-value (برای کش تصاویر و شمارنده‌ها)
type KV interface {
	// Get returns "", nil for a missing key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, n int64) (int64, error)
	Del(ctx context.Context, key string) error
}

// Lease is a best-effort, time-boxed re-entrancy guard. It is not a true
// lock: the TTL bounds how long a crashed holder can block others.
type Lease interface {
	// Acquire returns false, nil when the lease is already held by someone
	// else.
	Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	// Release frees the lease only if owner still holds it.
	Release(ctx context.Context, owner string) error
}
