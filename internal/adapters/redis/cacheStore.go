package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fundsync/internal/core/record"

	"github.com/go-redis/redis/v8"
)

const (
	recordKeyPrefix = "fundraiser:record:"
	// subscribedKey یک ZSET: member = postID، score = endDate (unix seconds،
	// صفر یعنی بدون تاریخ پایان)
	subscribedKey = "fundraiser:subscribed"
)

// CacheStoreRedis نگهداری رکوردهای کش و ایندکس subscribe شده در Redis
type CacheStoreRedis struct {
	Client *redis.Client
}

func NewCacheStoreRedis(client *redis.Client) *CacheStoreRedis {
	return &CacheStoreRedis{Client: client}
}

func recordKey(postID string) string {
	return recordKeyPrefix + postID
}

func (s *CacheStoreRedis) Get(ctx context.Context, postID string) (*record.CacheRecord, error) {
	raw, err := s.Client.Get(ctx, recordKey(postID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cache record %s: %w", postID, err)
	}
	rec := record.New()
	if err := json.Unmarshal([]byte(raw), rec); err != nil {
		return nil, fmt.Errorf("decode cache record %s: %w", postID, err)
	}
	return rec, nil
}

func (s *CacheStoreRedis) Set(ctx context.Context, postID string, rec *record.CacheRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode cache record %s: %w", postID, err)
	}
	if err := s.Client.Set(ctx, recordKey(postID), raw, 0).Err(); err != nil {
		return fmt.Errorf("set cache record %s: %w", postID, err)
	}
	return nil
}

func (s *CacheStoreRedis) Remove(ctx context.Context, postID string) error {
	if err := s.Client.Del(ctx, recordKey(postID)).Err(); err != nil {
		return fmt.Errorf("delete cache record %s: %w", postID, err)
	}
	return s.RemoveFromIndex(ctx, postID)
}

func (s *CacheStoreRedis) RemoveFromIndex(ctx context.Context, postID string) error {
	if err := s.Client.ZRem(ctx, subscribedKey, postID).Err(); err != nil {
		return fmt.Errorf("remove %s from subscribed index: %w", postID, err)
	}
	return nil
}

func (s *CacheStoreRedis) ListSubscribed(ctx context.Context) ([]string, error) {
	ids, err := s.Client.ZRange(ctx, subscribedKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list subscribed posts: %w", err)
	}
	return ids, nil
}

func (s *CacheStoreRedis) AddOrUpdate(ctx context.Context, postID string, endDate time.Time) error {
	var score float64
	if !endDate.IsZero() {
		score = float64(endDate.Unix())
	}
	z := &redis.Z{Score: score, Member: postID}
	if err := s.Client.ZAdd(ctx, subscribedKey, z).Err(); err != nil {
		return fmt.Errorf("add %s to subscribed index: %w", postID, err)
	}
	return nil
}
