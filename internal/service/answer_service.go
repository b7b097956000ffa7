package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/konkoor/konkoor-backend/internal/metrics"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/repository"
)

// AnswerInput is one auto-save from the client. A nil Selected clears the answer.
type AnswerInput struct {
	QuestionID int64
	Selected   *string
	TimeSpent  *int
}

// SubmitAnswer overwrites the attempt's answer for one question. Last write wins.
func (s *ExamSessionService) SubmitAnswer(ctx context.Context, studentID, attemptID int64, sessionToken string, in AnswerInput, now time.Time) (*model.AnswerState, error) {
	attempt, exam, err := s.liveAttempt(ctx, studentID, attemptID, sessionToken, now)
	if err != nil {
		return nil, err
	}
	if !attempt.HasQuestion(in.QuestionID) {
		return nil, ErrQuestionNotInAttempt
	}

	var selected *model.OptionKey
	if in.Selected != nil {
		k, ok := model.ParseOptionKey(*in.Selected)
		if !ok {
			return nil, ErrInvalidOption
		}
		selected = &k
	}
	if in.TimeSpent != nil && *in.TimeSpent < 0 {
		return nil, ErrInvalidTimeSpent
	}

	if err := s.attempts.SaveAnswer(ctx, attempt.ID, in.QuestionID, selected, in.TimeSpent, now); err != nil {
		if errors.Is(err, repository.ErrAttemptNotInProgress) {
			return nil, ErrAttemptFinalized
		}
		return nil, fmt.Errorf("save answer: %w", err)
	}
	metrics.AnswersSaved().Inc()

	qid := in.QuestionID
	if selected != nil {
		s.recordActivity(ctx, model.ActivityLogEntry{
			AttemptID: attempt.ID, ActivityType: model.ActivityAnswerChange, QuestionID: &qid, CreatedAt: now,
		})
	}
	s.publish(ctx, model.MonitorEvent{
		Type: model.MonitorEventAnswerSaved, ExamID: exam.ID, AttemptID: attempt.ID,
		StudentID: studentID, QuestionID: &qid, At: now,
	})

	return &model.AnswerState{SelectedAnswer: selected, TimeSpent: in.TimeSpent}, nil
}

// ToggleBookmark flips a question's bookmark and returns the new state.
func (s *ExamSessionService) ToggleBookmark(ctx context.Context, studentID, attemptID int64, sessionToken string, questionID int64, now time.Time) (bool, error) {
	attempt, exam, err := s.liveAttempt(ctx, studentID, attemptID, sessionToken, now)
	if err != nil {
		return false, err
	}
	if !attempt.HasQuestion(questionID) {
		return false, ErrQuestionNotInAttempt
	}

	bookmarked, err := s.attempts.ToggleBookmark(ctx, attempt.ID, questionID)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptNotInProgress) {
			return false, ErrAttemptFinalized
		}
		return false, fmt.Errorf("toggle bookmark: %w", err)
	}

	s.recordActivity(ctx, model.ActivityLogEntry{
		AttemptID: attempt.ID, ActivityType: model.ActivityBookmarkToggle, QuestionID: &questionID, CreatedAt: now,
	})
	s.publish(ctx, model.MonitorEvent{
		Type: model.MonitorEventBookmark, ExamID: exam.ID, AttemptID: attempt.ID,
		StudentID: studentID, QuestionID: &questionID, At: now,
	})
	return bookmarked, nil
}

// LogActivity records a client-reported anti-cheating signal and bumps its counter.
// It never terminates the attempt.
func (s *ExamSessionService) LogActivity(ctx context.Context, studentID, attemptID int64, sessionToken, activityType string, now time.Time) error {
	kind := model.ActivityType(activityType)
	if !kind.IsClientReported() {
		return ErrInvalidActivity
	}
	attempt, exam, err := s.liveAttempt(ctx, studentID, attemptID, sessionToken, now)
	if err != nil {
		return err
	}

	if err := s.attempts.IncrementActivityCounter(ctx, attempt.ID, kind); err != nil {
		if errors.Is(err, repository.ErrAttemptNotInProgress) {
			return ErrAttemptFinalized
		}
		return fmt.Errorf("increment activity counter: %w", err)
	}

	s.recordActivity(ctx, model.ActivityLogEntry{AttemptID: attempt.ID, ActivityType: kind, CreatedAt: now})
	s.publish(ctx, model.MonitorEvent{
		Type: model.MonitorEventActivity, ExamID: exam.ID, AttemptID: attempt.ID, StudentID: studentID, At: now,
	})
	return nil
}

// recordActivity is best-effort; failures are logged and dropped.
func (s *ExamSessionService) recordActivity(ctx context.Context, e model.ActivityLogEntry) {
	metrics.ActivityEvents().WithLabelValues(string(e.ActivityType)).Inc()
	if err := s.activity.Record(ctx, e); err != nil {
		s.log.Warn().Err(err).
			Int64("attempt_id", e.AttemptID).
			Str("activity_type", string(e.ActivityType)).
			Msg("Dropping activity log entry")
	}
}
