package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/konkoor/konkoor-backend/internal/middleware"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/response"
	"github.com/konkoor/konkoor-backend/internal/service"
	"github.com/konkoor/konkoor-backend/internal/validator"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// stubSessions records the last call and returns whatever err is set to.
type stubSessions struct {
	err error

	studentID int64
	attemptID int64
	session   string
	input     service.AnswerInput
	activity  string
}

func (s *stubSessions) ListAvailable(_ context.Context, studentID int64, _ time.Time) ([]model.Exam, error) {
	s.studentID = studentID
	if s.err != nil {
		return nil, s.err
	}
	return []model.Exam{{ID: 1, Title: "کنکور آزمایشی", DurationMinutes: 30, QuestionCount: 2}}, nil
}

func (s *stubSessions) Start(_ context.Context, studentID, examID int64, _ time.Time) (*model.StartExamResponse, error) {
	s.studentID = studentID
	if s.err != nil {
		return nil, s.err
	}
	return &model.StartExamResponse{AttemptID: 100 + examID, SessionToken: "tok", RemainingTime: 1800}, nil
}

func (s *stubSessions) GetQuestions(_ context.Context, studentID, attemptID int64, session string, _ time.Time) (*model.ExamPayload, error) {
	s.studentID, s.attemptID, s.session = studentID, attemptID, session
	if s.err != nil {
		return nil, s.err
	}
	return &model.ExamPayload{AttemptID: attemptID, Questions: []model.QuestionForStudent{}, RemainingTime: 600}, nil
}

func (s *stubSessions) SubmitAnswer(_ context.Context, studentID, attemptID int64, session string, in service.AnswerInput, _ time.Time) (*model.AnswerState, error) {
	s.studentID, s.attemptID, s.session, s.input = studentID, attemptID, session, in
	if s.err != nil {
		return nil, s.err
	}
	state := &model.AnswerState{TimeSpent: in.TimeSpent}
	if in.Selected != nil {
		k := model.OptionKey(*in.Selected)
		state.SelectedAnswer = &k
	}
	return state, nil
}

func (s *stubSessions) ToggleBookmark(_ context.Context, studentID, attemptID int64, session string, questionID int64, _ time.Time) (bool, error) {
	s.studentID, s.attemptID, s.session = studentID, attemptID, session
	s.input = service.AnswerInput{QuestionID: questionID}
	if s.err != nil {
		return false, s.err
	}
	return true, nil
}

func (s *stubSessions) LogActivity(_ context.Context, studentID, attemptID int64, session, activityType string, _ time.Time) error {
	s.studentID, s.attemptID, s.session, s.activity = studentID, attemptID, session, activityType
	return s.err
}

func (s *stubSessions) Submit(_ context.Context, studentID, attemptID int64, session string, _ time.Time) (*model.SubmitResult, error) {
	s.studentID, s.attemptID, s.session = studentID, attemptID, session
	if s.err != nil {
		return nil, s.err
	}
	return &model.SubmitResult{AttemptID: attemptID, TotalScore: 2.5, TotalPossible: 4, Percentage: 62.5}, nil
}

func (s *stubSessions) Results(_ context.Context, studentID, attemptID int64) (*model.AttemptResult, error) {
	s.studentID, s.attemptID = studentID, attemptID
	if s.err != nil {
		return nil, s.err
	}
	return &model.AttemptResult{AttemptID: attemptID, Passed: true}, nil
}

func (s *stubSessions) Resume(_ context.Context, studentID, attemptID int64, _ time.Time) (*model.ResumeState, error) {
	s.studentID, s.attemptID = studentID, attemptID
	if s.err != nil {
		return nil, s.err
	}
	return &model.ResumeState{AttemptID: attemptID, Resumable: true, Status: model.AttemptStatusInProgress, RemainingTime: 300}, nil
}

type stubAnalytics struct {
	err error
}

func (s *stubAnalytics) ExamAnalytics(_ context.Context, examID int64) (*model.ExamAnalytics, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.ExamAnalytics{ExamID: examID, TotalParticipants: 3}, nil
}

func (s *stubAnalytics) AttemptActivity(_ context.Context, attemptID int64) (*model.ActivityReview, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.ActivityReview{AttemptID: attemptID, TabSwitchesCount: 2, Entries: []model.ActivityLogEntry{}}, nil
}

type stubSnapshots struct {
	err        error
	onSnapshot func()
}

func (s *stubSnapshots) Snapshot(_ context.Context, examID int64) (*model.MonitorSnapshot, error) {
	if s.onSnapshot != nil {
		s.onSnapshot()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &model.MonitorSnapshot{
		ExamID:        examID,
		QuestionCount: 2,
		TotalJoined:   1,
		InProgress:    1,
		Attempts:      []model.AttemptProgress{{AttemptID: 21, StudentID: 7, Status: model.AttemptStatusInProgress}},
	}, nil
}

// withClaims stands in for the JWT middleware.
func withClaims(userID int64, role service.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: userID, Role: role})
		c.Next()
	}
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}
