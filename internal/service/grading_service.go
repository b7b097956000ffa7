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

const (
	triggerStudent = "student"
	triggerExpiry  = "expiry"
)

// Submit grades the attempt on the student's request. A submit arriving after
// the deadline is graded as of the deadline.
func (s *ExamSessionService) Submit(ctx context.Context, studentID, attemptID int64, sessionToken string, now time.Time) (*model.SubmitResult, error) {
	attempt, exam, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if !sessionMatches(attempt, sessionToken) {
		return nil, ErrInvalidSession
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, ErrAttemptFinalized
	}

	submittedAt, trigger := now, triggerStudent
	if attempt.RemainingSeconds(exam.DurationMinutes, now) == 0 {
		submittedAt, trigger = attempt.Deadline(exam.DurationMinutes), triggerExpiry
	}

	graded, possible, err := s.finalize(ctx, attempt, exam, submittedAt, trigger)
	if errors.Is(err, repository.ErrAttemptNotInProgress) {
		// Lost the race to an expiry auto-submit: report its outcome.
		graded, err = s.attempts.GetByID(ctx, attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("reload attempt: %w", err)
		}
		if graded.Status != model.AttemptStatusGraded {
			return nil, ErrAttemptFinalized
		}
		possible, err = s.totalPossible(ctx, graded)
	}
	if err != nil {
		return nil, err
	}

	return submitResult(graded, possible), nil
}

// Results returns the report card of a graded attempt.
func (s *ExamSessionService) Results(ctx context.Context, studentID, attemptID int64) (*model.AttemptResult, error) {
	attempt, exam, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusGraded {
		return nil, ErrNotGraded
	}

	answers, err := s.attempts.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	questions, err := s.questions.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}
	return BuildResult(exam, attempt, answers, indexQuestions(questions)), nil
}

// autoSubmit grades an expired attempt as a system action, without a session
// check, backdating submitted_at to the deadline. Losing a race to another
// finalization is not an error; the already-graded attempt is returned.
func (s *ExamSessionService) autoSubmit(ctx context.Context, attempt *model.Attempt, exam *model.Exam) (*model.Attempt, error) {
	graded, _, err := s.finalize(ctx, attempt, exam, attempt.Deadline(exam.DurationMinutes), triggerExpiry)
	if errors.Is(err, repository.ErrAttemptNotInProgress) {
		graded, err = s.attempts.GetByID(ctx, attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("reload attempt: %w", err)
		}
		return graded, nil
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.MonitorEvent{
		Type: model.MonitorEventAutoSubmitted, ExamID: exam.ID, AttemptID: graded.ID,
		StudentID: graded.StudentID, Percentage: graded.Percentage, At: *graded.SubmittedAt,
	})
	s.log.Info().Int64("attempt_id", graded.ID).Msg("Attempt auto-submitted on expiry")
	return graded, nil
}

// finalize grades and commits in one transaction. Repository errors pass
// through unwrapped so callers can detect a lost race.
func (s *ExamSessionService) finalize(ctx context.Context, attempt *model.Attempt, exam *model.Exam, submittedAt time.Time, trigger string) (*model.Attempt, float64, error) {
	questions, err := s.questions.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("list exam questions: %w", err)
	}
	byID := indexQuestions(questions)

	var possible float64
	graded, err := s.attempts.Finalize(ctx, attempt.ID, submittedAt, func(answers []model.Answer) ([]model.Answer, float64, float64) {
		g := GradeAttempt(answers, byID)
		possible = g.TotalPossible
		return g.Answers, g.TotalScore, g.Percentage
	})
	if err != nil {
		if errors.Is(err, repository.ErrAttemptNotInProgress) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("finalize attempt: %w", err)
	}

	metrics.AttemptsGraded().WithLabelValues(trigger).Inc()
	if s.analytics != nil {
		if err := s.analytics.Invalidate(ctx, exam.ID); err != nil {
			s.log.Warn().Err(err).Int64("exam_id", exam.ID).Msg("Analytics cache invalidation failed")
		}
	}
	s.publish(ctx, model.MonitorEvent{
		Type: model.MonitorEventGraded, ExamID: exam.ID, AttemptID: graded.ID,
		StudentID: graded.StudentID, Percentage: graded.Percentage, At: submittedAt,
	})
	return graded, possible, nil
}

func (s *ExamSessionService) totalPossible(ctx context.Context, attempt *model.Attempt) (float64, error) {
	answers, err := s.attempts.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return 0, fmt.Errorf("list answers: %w", err)
	}
	questions, err := s.questions.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return 0, fmt.Errorf("list exam questions: %w", err)
	}
	return GradeAttempt(answers, indexQuestions(questions)).TotalPossible, nil
}

func submitResult(a *model.Attempt, possible float64) *model.SubmitResult {
	res := &model.SubmitResult{AttemptID: a.ID, TotalPossible: possible}
	if a.TotalScore != nil {
		res.TotalScore = *a.TotalScore
	}
	if a.Percentage != nil {
		res.Percentage = *a.Percentage
	}
	return res
}
