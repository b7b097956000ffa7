package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/database"
	"github.com/konkoor/konkoor-backend/internal/handler"
	"github.com/konkoor/konkoor-backend/internal/logger"
	"github.com/konkoor/konkoor-backend/internal/metrics"
	"github.com/konkoor/konkoor-backend/internal/middleware"
	"github.com/konkoor/konkoor-backend/internal/repository"
	"github.com/konkoor/konkoor-backend/internal/router"
	"github.com/konkoor/konkoor-backend/internal/service"
	"github.com/konkoor/konkoor-backend/internal/validator"
	"github.com/konkoor/konkoor-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Konkoor exam backend")

	// ─── Initialize Validator & Metrics ───────────────────────────────
	validator.Setup()
	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool)

	questionStore := repository.NewCachedQuestionStore(questionRepo, rdb, cfg.QuestionCacheTTL, log)
	activityQueue := repository.NewActivityQueue(rdb, activityRepo, log)
	analyticsCache := repository.NewAnalyticsCache(rdb, cfg.AnalyticsCacheTTL)
	monitor := repository.NewMonitorPublisher(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	sessionService := service.NewExamSessionService(examRepo, questionStore, attemptRepo, activityQueue, monitor, analyticsCache, log)
	analyticsService := service.NewAnalyticsService(examRepo, attemptRepo, activityRepo, analyticsCache, log)
	monitorService := service.NewMonitorService(examRepo, monitorRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		StudentExam: handler.NewStudentExamHandler(sessionService, log),
		AdminExam:   handler.NewAdminExamHandler(analyticsService, log),
		WS:          handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		Monitor:     handler.NewMonitorHandler(monitorService, monitor, log),
		System: handler.NewSystemHandler(map[string]handler.Probe{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, activityQueue.Depth, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	activityLimiter := middleware.NewRateLimiter(cfg.ActivityRatePerMin, time.Minute)
	activityWorker := worker.NewActivityLogWorker(activityRepo, rdb, log)

	workers.Add(2)
	go func() {
		defer workers.Done()
		activityWorker.Start(workerCtx)
	}()
	go func() {
		defer workers.Done()
		activityLimiter.Run(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, activityLimiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and let the activity buffer flush.
	workerCancel()
	drained := make(chan struct{})
	go func() {
		workers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(cfg.ShutdownDrainPeriod + 5*time.Second):
		log.Warn().Msg("Workers did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
