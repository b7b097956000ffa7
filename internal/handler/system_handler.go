package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/konkoor/konkoor-backend/internal/response"
	"github.com/rs/zerolog"
)

const probeTimeout = 2 * time.Second

// Probe checks one dependency.
type Probe func(ctx context.Context) error

// QueueDepth reports the activity persist backlog.
type QueueDepth func(ctx context.Context) (int64, error)

// SystemHandler reports liveness of the server and its dependencies.
type SystemHandler struct {
	probes    map[string]Probe
	queue     QueueDepth
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(probes map[string]Probe, queue QueueDepth, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		probes:    probes,
		queue:     queue,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type systemStatus struct {
	Status       string            `json:"status"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`

	// Worker Queue
	QueueActivity int64 `json:"queue_activity"`
}

// Health godoc
// GET /health
// 200 when every dependency answers, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	deps, healthy := h.check(c.Request.Context())
	status := http.StatusOK
	body := gin.H{"status": "ok", "dependencies": deps}
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	response.Success(c, status, body)
}

// Status godoc
// GET /api/v1/admin/system/status
func (h *SystemHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	deps, healthy := h.check(ctx)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s := systemStatus{
		Status:       "ok",
		Uptime:       time.Since(h.startTime).Truncate(time.Second).String(),
		Dependencies: deps,
		Goroutines:   runtime.NumGoroutine(),
		HeapAlloc:    ms.HeapAlloc,
		NumGC:        ms.NumGC,
		GoVersion:    runtime.Version(),
	}
	if !healthy {
		s.Status = "degraded"
	}

	if h.queue != nil {
		qctx, cancel := context.WithTimeout(ctx, probeTimeout)
		depth, err := h.queue(qctx)
		cancel()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to read activity queue depth")
		}
		s.QueueActivity = depth
	}

	response.Success(c, http.StatusOK, s)
}

func (h *SystemHandler) check(ctx context.Context) (map[string]string, bool) {
	deps := make(map[string]string, len(h.probes))
	healthy := true
	for name, probe := range h.probes {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := probe(pctx)
		cancel()
		if err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health probe failed")
			deps[name] = "down"
			healthy = false
			continue
		}
		deps[name] = "up"
	}
	return deps, healthy
}
