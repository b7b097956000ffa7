package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/response"
	"github.com/rs/zerolog"
)

// Analytics is the admin reporting surface.
type Analytics interface {
	ExamAnalytics(ctx context.Context, examID int64) (*model.ExamAnalytics, error)
	AttemptActivity(ctx context.Context, attemptID int64) (*model.ActivityReview, error)
}

// AdminExamHandler serves exam analytics and anti-cheating review to staff.
type AdminExamHandler struct {
	analytics Analytics
	log       zerolog.Logger
}

// NewAdminExamHandler creates a new AdminExamHandler.
func NewAdminExamHandler(analytics Analytics, log zerolog.Logger) *AdminExamHandler {
	return &AdminExamHandler{
		analytics: analytics,
		log:       log.With().Str("component", "admin_exam_handler").Logger(),
	}
}

// ExamAnalytics godoc
// GET /api/v1/admin/exams/:id/analytics
func (h *AdminExamHandler) ExamAnalytics(c *gin.Context) {
	examID, ok := parseID(c, "id")
	if !ok {
		return
	}

	out, err := h.analytics.ExamAnalytics(c.Request.Context(), examID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, out)
}

// AttemptActivity godoc
// GET /api/v1/admin/attempts/:attempt_id/activity
// Counters plus the append-only activity log, oldest first.
func (h *AdminExamHandler) AttemptActivity(c *gin.Context) {
	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	review, err := h.analytics.AttemptActivity(c.Request.Context(), attemptID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, review)
}
