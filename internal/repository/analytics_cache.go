package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// AnalyticsCache stores computed exam analytics in Redis.
type AnalyticsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAnalyticsCache creates a new AnalyticsCache.
func NewAnalyticsCache(rdb *redis.Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached analytics of the exam's current generation together
// with that generation. A miss returns ErrNotFound and still reports the
// generation, so the caller can store what it computes under it.
func (c *AnalyticsCache) Get(ctx context.Context, examID int64) (*model.ExamAnalytics, int64, error) {
	gen, err := c.rdb.Get(ctx, config.CacheKey.ExamAnalyticsGenKey(examID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	raw, err := c.rdb.Get(ctx, config.CacheKey.ExamAnalyticsKey(examID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, ErrNotFound
	}
	if err != nil {
		return nil, gen, err
	}
	var a model.ExamAnalytics
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, gen, err
	}
	return &a, gen, nil
}

// Set stores analytics under the generation they were computed at. If the
// generation moved on meanwhile the entry is never read and just expires.
func (c *AnalyticsCache) Set(ctx context.Context, a *model.ExamAnalytics, gen int64) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, config.CacheKey.ExamAnalyticsKey(a.ExamID, gen), data, c.ttl).Err()
}

// Invalidate advances the exam's generation, orphaning every entry computed before it.
func (c *AnalyticsCache) Invalidate(ctx context.Context, examID int64) error {
	return c.rdb.Incr(ctx, config.CacheKey.ExamAnalyticsGenKey(examID)).Err()
}
