package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/handler"
	"github.com/konkoor/konkoor-backend/internal/metrics"
	"github.com/konkoor/konkoor-backend/internal/middleware"
	"github.com/konkoor/konkoor-backend/internal/response"
	"github.com/konkoor/konkoor-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	StudentExam *handler.StudentExamHandler
	AdminExam   *handler.AdminExamHandler
	WS          *handler.WSHandler
	Monitor     *handler.MonitorHandler
	System      *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	activityLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(middleware.AccessLogger(nil), gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", cfg.SessionHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Metrics())
	router.Use(middleware.Brotli())

	// ─── Ops ───────────────────────────────────────────────────────────
	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ─── 1. Student Group (JWT) ────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.NoStore(),
	)
	{
		studentAPI.GET("/exams/available", handlers.StudentExam.ListAvailable)
		studentAPI.POST("/exams/:exam_id/start", handlers.StudentExam.Start)
		studentAPI.GET("/attempts/:attempt_id/results", handlers.StudentExam.Results)
		studentAPI.GET("/attempts/:attempt_id/resume", handlers.StudentExam.Resume)

		// Calls bound to the device that started the attempt.
		live := studentAPI.Group("/attempts/:attempt_id")
		live.Use(middleware.RequireExamSession(cfg.SessionHeader))
		{
			live.GET("/questions", handlers.StudentExam.GetQuestions)
			live.POST("/answers", handlers.StudentExam.SubmitAnswer)
			live.POST("/bookmark", handlers.StudentExam.ToggleBookmark)
			live.POST("/activity", activityLimiter.Middleware(), handlers.StudentExam.LogActivity)
			live.POST("/submit", handlers.StudentExam.Submit)
		}
	}

	// ─── 2. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/attempts/:attempt_id/stream", handlers.WS.ExamStream)
	}

	// ─── 3. Admin Group (JWT + staff role) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireJWT(authService),
		middleware.RequireRole(service.RoleAdmin, service.RoleAssistant),
	)
	{
		adminAPI.GET("/exams/:id/analytics", handlers.AdminExam.ExamAnalytics)
		adminAPI.GET("/exams/:id/monitor", handlers.Monitor.MonitorExamSSE)
		adminAPI.GET("/attempts/:attempt_id/activity", handlers.AdminExam.AttemptActivity)
		adminAPI.GET("/system/status", handlers.System.Status)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
