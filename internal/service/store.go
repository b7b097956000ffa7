package service

import (
	"context"
	"time"

	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/repository"
)

// ExamStore reads exams.
type ExamStore interface {
	GetByID(ctx context.Context, id int64) (*model.Exam, error)
	ListAvailable(ctx context.Context, studentID int64, now time.Time) ([]model.Exam, error)
}

// QuestionStore reads an exam's question snapshots in authored order.
type QuestionStore interface {
	ListByExam(ctx context.Context, examID int64) ([]model.Question, error)
}

// AttemptStore persists attempts and answers.
type AttemptStore interface {
	Create(ctx context.Context, a *model.Attempt) error
	GetByID(ctx context.Context, id int64) (*model.Attempt, error)
	ListAnswers(ctx context.Context, attemptID int64) ([]model.Answer, error)
	SaveAnswer(ctx context.Context, attemptID, questionID int64, selected *model.OptionKey, timeSpent *int, at time.Time) error
	ToggleBookmark(ctx context.Context, attemptID, questionID int64) (bool, error)
	IncrementActivityCounter(ctx context.Context, attemptID int64, activity model.ActivityType) error
	Finalize(ctx context.Context, attemptID int64, submittedAt time.Time, grade repository.GradeFunc) (*model.Attempt, error)
	ListGradedScores(ctx context.Context, examID int64) ([]model.GradedScore, error)
}

// ActivityRecorder appends activity log entries.
type ActivityRecorder interface {
	Record(ctx context.Context, e model.ActivityLogEntry) error
}

// ActivityLister reads an attempt's activity log.
type ActivityLister interface {
	ListByAttempt(ctx context.Context, attemptID int64) ([]model.ActivityLogEntry, error)
}

// EventPublisher broadcasts monitor events.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.MonitorEvent) error
}

// AnalyticsCache stores computed analytics per exam, versioned by a
// generation that Invalidate advances.
type AnalyticsCache interface {
	Get(ctx context.Context, examID int64) (*model.ExamAnalytics, int64, error)
	Set(ctx context.Context, a *model.ExamAnalytics, gen int64) error
	Invalidate(ctx context.Context, examID int64) error
}
