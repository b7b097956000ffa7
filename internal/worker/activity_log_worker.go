package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ActivityWriter persists activity entries.
type ActivityWriter interface {
	InsertBatch(ctx context.Context, entries []model.ActivityLogEntry) error
	Insert(ctx context.Context, e *model.ActivityLogEntry) error
}

// ActivityLogWorker drains the activity persist queue into exam_activity_logs.
type ActivityLogWorker struct {
	writer ActivityWriter
	rdb    *redis.Client
	log    zerolog.Logger

	batchSize    int
	batchTimeout time.Duration
	pollTimeout  time.Duration
	backoff      time.Duration
}

func NewActivityLogWorker(writer ActivityWriter, rdb *redis.Client, log zerolog.Logger) *ActivityLogWorker {
	return &ActivityLogWorker{
		writer:       writer,
		rdb:          rdb,
		log:          log.With().Str("component", "activity_log_worker").Logger(),
		batchSize:    BatchSize,
		batchTimeout: BatchTimeout,
		pollTimeout:  PollTimeout,
		backoff:      2 * time.Second,
	}
}

// Start blocks until ctx is cancelled, then flushes whatever is buffered.
func (w *ActivityLogWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ActivityLogWorker started")

	buffer := make([]model.ActivityLogEntry, 0, w.batchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Check Flush Conditions (Time or Size)
		if len(buffer) > 0 {
			if len(buffer) >= w.batchSize || time.Since(lastFlushTime) >= w.batchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Check Context (Graceful Shutdown)
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis
		result, err := w.rdb.BLPop(ctx, w.pollTimeout, config.WorkerKey.PersistActivityQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // Queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				continue // Picked up by the shutdown branch
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			sleepCtx(ctx, 3*time.Second)
			continue
		}

		// 4. Process Data
		if len(result) < 2 {
			continue
		}

		var queued repository.QueuedActivity
		if err := json.Unmarshal([]byte(result[1]), &queued); err != nil {
			// Malformed JSON can never succeed. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed activity entry")
			continue
		}
		if queued.AttemptID <= 0 || !model.ActivityType(queued.ActivityType).Valid() {
			w.log.Error().Str("data", result[1]).Msg("Discarding invalid activity entry")
			continue
		}

		buffer = append(buffer, queued.Entry())
	}
}

// flushSafe attempts a COPY, then row-by-row inserts, then requeue.
func (w *ActivityLogWorker) flushSafe(ctx context.Context, batch []model.ActivityLogEntry) {
	if err := w.writer.InsertBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *ActivityLogWorker) fallbackInsert(ctx context.Context, batch []model.ActivityLogEntry) {
	requeueList := make([]model.ActivityLogEntry, 0)

	for i := range batch {
		e := batch[i]
		err := w.writer.Insert(ctx, &e)
		if err == nil {
			continue
		}

		// The database rejected the row itself (e.g. the attempt is gone).
		// Retrying cannot help.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			w.log.Error().Err(err).Int64("attempt_id", e.AttemptID).Str("sqlstate", pgErr.Code).Msg("Dropping rejected activity entry")
			continue
		}

		w.log.Error().Err(err).Int64("attempt_id", e.AttemptID).Msg("Insert failed, requeueing")
		requeueList = append(requeueList, e)
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ActivityLogWorker) requeue(ctx context.Context, items []model.ActivityLogEntry) {
	// Requeue must outlive a cancelled worker context.
	ctx = context.WithoutCancel(ctx)

	pipe := w.rdb.Pipeline()
	for _, e := range items {
		data, _ := json.Marshal(repository.NewQueuedActivity(e))
		pipe.RPush(ctx, config.WorkerKey.PersistActivityQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue activity entries. Data loss occurred.")
		return
	}

	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Avoid thrashing while the database is down.
	time.Sleep(w.backoff)
}

func (w *ActivityLogWorker) shutdown(buffer []model.ActivityLogEntry) {
	w.log.Info().Int("buffered", len(buffer)).Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
