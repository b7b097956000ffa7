package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/konkoor/konkoor-backend/internal/middleware"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/response"
	"github.com/konkoor/konkoor-backend/internal/service"
	"github.com/konkoor/konkoor-backend/internal/validator"
	"github.com/rs/zerolog"
)

// ExamSession is the student-facing exam workflow.
type ExamSession interface {
	ListAvailable(ctx context.Context, studentID int64, now time.Time) ([]model.Exam, error)
	Start(ctx context.Context, studentID, examID int64, now time.Time) (*model.StartExamResponse, error)
	GetQuestions(ctx context.Context, studentID, attemptID int64, sessionToken string, now time.Time) (*model.ExamPayload, error)
	SubmitAnswer(ctx context.Context, studentID, attemptID int64, sessionToken string, in service.AnswerInput, now time.Time) (*model.AnswerState, error)
	ToggleBookmark(ctx context.Context, studentID, attemptID int64, sessionToken string, questionID int64, now time.Time) (bool, error)
	LogActivity(ctx context.Context, studentID, attemptID int64, sessionToken, activityType string, now time.Time) error
	Submit(ctx context.Context, studentID, attemptID int64, sessionToken string, now time.Time) (*model.SubmitResult, error)
	Results(ctx context.Context, studentID, attemptID int64) (*model.AttemptResult, error)
	Resume(ctx context.Context, studentID, attemptID int64, now time.Time) (*model.ResumeState, error)
}

// StudentExamHandler handles exam taking for students.
type StudentExamHandler struct {
	sessions ExamSession
	now      func() time.Time
	log      zerolog.Logger
}

// NewStudentExamHandler creates a new StudentExamHandler.
func NewStudentExamHandler(sessions ExamSession, log zerolog.Logger) *StudentExamHandler {
	return &StudentExamHandler{
		sessions: sessions,
		now:      time.Now,
		log:      log.With().Str("component", "student_exam_handler").Logger(),
	}
}

// ListAvailable godoc
// GET /api/v1/student/exams/available
// Published exams inside their window that the student has not attempted.
func (h *StudentExamHandler) ListAvailable(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.sessions.ListAvailable(c.Request.Context(), claims.UserID, h.now())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// Start godoc
// POST /api/v1/student/exams/:exam_id/start
// Creates the attempt with its frozen question order and issues the session token.
func (h *StudentExamHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	started, err := h.sessions.Start(c.Request.Context(), claims.UserID, examID, h.now())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, started)
}

// GetQuestions godoc
// GET /api/v1/student/attempts/:attempt_id/questions
// Answer-stripped questions in the attempt's order, with saved answers and remaining time.
func (h *StudentExamHandler) GetQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	payload, err := h.sessions.GetQuestions(c.Request.Context(), claims.UserID, attemptID, middleware.GetExamSession(c), h.now())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, payload)
}

// SubmitAnswer godoc
// POST /api/v1/student/attempts/:attempt_id/answers
// Auto-save for one question. A null selected_answer clears it.
func (h *StudentExamHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessions.SubmitAnswer(c.Request.Context(), claims.UserID, attemptID, middleware.GetExamSession(c), service.AnswerInput{
		QuestionID: req.QuestionID,
		Selected:   req.SelectedAnswer,
		TimeSpent:  req.TimeSpent,
	}, h.now())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question_id": req.QuestionID, "answer": state})
}

// ToggleBookmark godoc
// POST /api/v1/student/attempts/:attempt_id/bookmark
func (h *StudentExamHandler) ToggleBookmark(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	var req model.BookmarkRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	marked, err := h.sessions.ToggleBookmark(c.Request.Context(), claims.UserID, attemptID, middleware.GetExamSession(c), req.QuestionID, h.now())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question_id": req.QuestionID, "is_bookmarked": marked})
}

// LogActivity godoc
// POST /api/v1/student/attempts/:attempt_id/activity
// Client-observed tab switch or fullscreen exit.
func (h *StudentExamHandler) LogActivity(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	var req model.LogActivityRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessions.LogActivity(c.Request.Context(), claims.UserID, attemptID, middleware.GetExamSession(c), req.ActivityType, h.now()); err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"logged": true})
}

// Submit godoc
// POST /api/v1/student/attempts/:attempt_id/submit
// Finalizes and grades the attempt.
func (h *StudentExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	result, err := h.sessions.Submit(c.Request.Context(), claims.UserID, attemptID, middleware.GetExamSession(c), h.now())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Results godoc
// GET /api/v1/student/attempts/:attempt_id/results
// Report card for a graded attempt.
func (h *StudentExamHandler) Results(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	result, err := h.sessions.Results(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Resume godoc
// GET /api/v1/student/attempts/:attempt_id/resume
// Covers page reloads. An expired attempt is submitted on the spot.
func (h *StudentExamHandler) Resume(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	state, err := h.sessions.Resume(c.Request.Context(), claims.UserID, attemptID, h.now())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}
