package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QueuedActivity is the wire form of an activity entry on the persist queue.
type QueuedActivity struct {
	AttemptID    int64  `json:"attempt_id"`
	ActivityType string `json:"activity_type"`
	QuestionID   *int64 `json:"question_id,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// NewQueuedActivity converts an entry to its queue form with millisecond precision.
func NewQueuedActivity(e model.ActivityLogEntry) QueuedActivity {
	return QueuedActivity{
		AttemptID:    e.AttemptID,
		ActivityType: string(e.ActivityType),
		QuestionID:   e.QuestionID,
		Timestamp:    e.CreatedAt.UnixMilli(),
	}
}

// Entry converts back to a log entry.
func (q QueuedActivity) Entry() model.ActivityLogEntry {
	return model.ActivityLogEntry{
		AttemptID:    q.AttemptID,
		ActivityType: model.ActivityType(q.ActivityType),
		QuestionID:   q.QuestionID,
		CreatedAt:    time.UnixMilli(q.Timestamp).UTC(),
	}
}

// ActivityInserter writes one entry synchronously.
type ActivityInserter interface {
	Insert(ctx context.Context, e *model.ActivityLogEntry) error
}

// ActivityQueue records activity by pushing it onto the persist queue for the
// batch worker, writing directly when Redis is unavailable.
type ActivityQueue struct {
	rdb    *redis.Client
	direct ActivityInserter
	log    zerolog.Logger
}

// NewActivityQueue creates a new ActivityQueue.
func NewActivityQueue(rdb *redis.Client, direct ActivityInserter, log zerolog.Logger) *ActivityQueue {
	return &ActivityQueue{
		rdb:    rdb,
		direct: direct,
		log:    log.With().Str("component", "activity_queue").Logger(),
	}
}

// Record enqueues e. It only returns an error when both the push and the direct insert fail.
func (q *ActivityQueue) Record(ctx context.Context, e model.ActivityLogEntry) error {
	data, err := json.Marshal(NewQueuedActivity(e))
	if err == nil {
		err = q.rdb.RPush(ctx, config.WorkerKey.PersistActivityQueue, data).Err()
	}
	if err == nil {
		return nil
	}

	q.log.Warn().Err(err).Int64("attempt_id", e.AttemptID).Msg("Activity queue push failed, inserting directly")
	return q.direct.Insert(ctx, &e)
}

// Depth reports how many entries are waiting for the batch worker.
func (q *ActivityQueue) Depth(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, config.WorkerKey.PersistActivityQueue).Result()
}
