package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	batchErr error
	rowErr   func(e *model.ActivityLogEntry) error
	written  []model.ActivityLogEntry
	batches  int
}

func (f *fakeWriter) InsertBatch(_ context.Context, entries []model.ActivityLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches++
	f.written = append(f.written, entries...)
	return nil
}

func (f *fakeWriter) Insert(_ context.Context, e *model.ActivityLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rowErr != nil {
		if err := f.rowErr(e); err != nil {
			return err
		}
	}
	f.written = append(f.written, *e)
	return nil
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func newTestWorker(t *testing.T, w ActivityWriter) (*miniredis.Miniredis, *redis.Client, *ActivityLogWorker) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	worker := NewActivityLogWorker(w, rdb, zerolog.Nop())
	worker.batchTimeout = 50 * time.Millisecond
	worker.backoff = 0
	return mr, rdb, worker
}

func push(t *testing.T, mr *miniredis.Miniredis, entries ...model.ActivityLogEntry) {
	t.Helper()
	for _, e := range entries {
		data, err := json.Marshal(repository.NewQueuedActivity(e))
		require.NoError(t, err)
		_, err = mr.Push(config.WorkerKey.PersistActivityQueue, string(data))
		require.NoError(t, err)
	}
}

func entry(attemptID int64, at model.ActivityType) model.ActivityLogEntry {
	return model.ActivityLogEntry{
		AttemptID:    attemptID,
		ActivityType: at,
		CreatedAt:    time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestActivityLogWorkerDrainsQueue(t *testing.T) {
	writer := &fakeWriter{}
	mr, _, worker := newTestWorker(t, writer)

	push(t, mr, entry(1, model.ActivityTabSwitch), entry(1, model.ActivityAnswerChange))
	_, err := mr.Push(config.WorkerKey.PersistActivityQueue, "{broken")
	require.NoError(t, err)
	push(t, mr, entry(2, "copy_paste"), entry(2, model.ActivityFullscreenExit))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return writer.count() == 3 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	<-done

	require.Equal(t, model.ActivityTabSwitch, writer.written[0].ActivityType)
	require.Equal(t, model.ActivityFullscreenExit, writer.written[2].ActivityType)
	require.True(t, writer.written[0].CreatedAt.Equal(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)))
}

func TestActivityLogWorkerFallbackAndRequeue(t *testing.T) {
	writer := &fakeWriter{
		batchErr: errors.New("copy failed"),
		rowErr: func(e *model.ActivityLogEntry) error {
			switch e.AttemptID {
			case 2:
				return &pgconn.PgError{Code: "23503"}
			case 3:
				return errors.New("connection refused")
			}
			return nil
		},
	}
	mr, _, worker := newTestWorker(t, writer)

	worker.flushSafe(context.Background(), []model.ActivityLogEntry{
		entry(1, model.ActivityTabSwitch),
		entry(2, model.ActivityTabSwitch),
		entry(3, model.ActivityFullscreenExit),
	})

	require.Equal(t, 1, writer.count())
	require.Equal(t, int64(1), writer.written[0].AttemptID)

	items, err := mr.List(config.WorkerKey.PersistActivityQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var queued repository.QueuedActivity
	require.NoError(t, json.Unmarshal([]byte(items[0]), &queued))
	require.Equal(t, int64(3), queued.AttemptID)
}

func TestActivityLogWorkerFlushesOnShutdown(t *testing.T) {
	writer := &fakeWriter{}
	_, _, worker := newTestWorker(t, writer)

	worker.shutdown([]model.ActivityLogEntry{entry(4, model.ActivityBookmarkToggle)})
	require.Equal(t, 1, writer.count())
	require.Equal(t, 1, writer.batches)
}
