package repository

import (
	"context"
	"encoding/json"

	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// MonitorPublisher fans attempt state changes out over Redis pub/sub, one channel per exam.
type MonitorPublisher struct {
	rdb *redis.Client
}

// NewMonitorPublisher creates a new MonitorPublisher.
func NewMonitorPublisher(rdb *redis.Client) *MonitorPublisher {
	return &MonitorPublisher{rdb: rdb}
}

// Publish sends ev on its exam's channel.
func (p *MonitorPublisher) Publish(ctx context.Context, ev model.MonitorEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, config.CacheKey.ExamMonitorChannel(ev.ExamID), data).Err()
}

// Subscribe opens a subscription to an exam's channel. The caller must Close it.
func (p *MonitorPublisher) Subscribe(ctx context.Context, examID int64) *redis.PubSub {
	return p.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID))
}
