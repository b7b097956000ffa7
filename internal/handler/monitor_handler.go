package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	keepAliveInterval = 30 * time.Second
	refreshInterval   = 15 * time.Second
	refreshTimeout    = 5 * time.Second
)

// MonitorFeed opens an exam's live event subscription.
type MonitorFeed interface {
	Subscribe(ctx context.Context, examID int64) *redis.PubSub
}

// MonitorSnapshots builds the full attempt table of an exam.
type MonitorSnapshots interface {
	Snapshot(ctx context.Context, examID int64) (*model.MonitorSnapshot, error)
}

type MonitorHandler struct {
	snapshots MonitorSnapshots
	feed      MonitorFeed
	keepAlive time.Duration
	refresh   time.Duration
	log       zerolog.Logger
}

func NewMonitorHandler(snapshots MonitorSnapshots, feed MonitorFeed, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		snapshots: snapshots,
		feed:      feed,
		keepAlive: keepAliveInterval,
		refresh:   refreshInterval,
		log:       log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorExamSSE godoc
// GET /api/v1/admin/exams/:id/monitor
// Sends a snapshot of every attempt, then relays attempt events as they
// happen. The snapshot is resent periodically once events have been seen.
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	examID, ok := parseID(c, "id")
	if !ok {
		return
	}

	reqCtx := c.Request.Context()

	// Subscribe before taking the snapshot so no event published in between
	// is missed.
	pubsub := h.feed.Subscribe(reqCtx, examID)
	defer pubsub.Close()
	if _, err := pubsub.Receive(reqCtx); err != nil {
		failWithError(c, h.log, err)
		return
	}
	ch := pubsub.Channel()

	snap, err := h.snapshots.Snapshot(reqCtx, examID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.sendSnapshot(c, snap)

	keepAliveTicker := time.NewTicker(h.keepAlive)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(h.refresh)
	defer refreshTicker.Stop()

	// Skip refreshes until something has changed since the last snapshot
	dirty := false

	h.log.Info().Int64("exam_id", examID).Msg("Admin attached to live monitor SSE")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Int64("exam_id", examID).Msg("Admin disconnected from live monitor SSE")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			dirty = true
			// Payload is already JSON
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

		case <-refreshTicker.C:
			if !dirty {
				continue
			}
			fresh, err := h.fetchSnapshot(reqCtx, examID)
			if err != nil {
				h.log.Warn().Err(err).Int64("exam_id", examID).Msg("Monitor refresh failed")
				continue
			}
			dirty = false
			h.sendSnapshot(c, fresh)

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: {\"type\":\"ping\"}\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *MonitorHandler) fetchSnapshot(ctx context.Context, examID int64) (*model.MonitorSnapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	return h.snapshots.Snapshot(fetchCtx, examID)
}

func (h *MonitorHandler) sendSnapshot(c *gin.Context, snap *model.MonitorSnapshot) {
	c.SSEvent("message", gin.H{"type": "snapshot", "snapshot": snap})
	c.Writer.Flush()
}
