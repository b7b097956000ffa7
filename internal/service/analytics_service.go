package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/repository"
	"github.com/rs/zerolog"
)

// AnalyticsService serves read-only admin reporting.
type AnalyticsService struct {
	exams    ExamStore
	attempts AttemptStore
	activity ActivityLister
	cache    AnalyticsCache
	log      zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService. cache may be nil.
func NewAnalyticsService(exams ExamStore, attempts AttemptStore, activity ActivityLister, cache AnalyticsCache, log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		exams:    exams,
		attempts: attempts,
		activity: activity,
		cache:    cache,
		log:      log.With().Str("component", "analytics_service").Logger(),
	}
}

// Exam looks up an exam for admin views, soft-deleted ones included.
func (s *AnalyticsService) Exam(ctx context.Context, examID int64) (*model.Exam, error) {
	return lookupExam(ctx, s.exams, examID)
}

func lookupExam(ctx context.Context, exams ExamStore, examID int64) (*model.Exam, error) {
	exam, err := exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// ExamAnalytics aggregates an exam's graded attempts.
func (s *AnalyticsService) ExamAnalytics(ctx context.Context, examID int64) (*model.ExamAnalytics, error) {
	exam, err := s.Exam(ctx, examID)
	if err != nil {
		return nil, err
	}

	// The generation is read before the scores, so a grading that commits
	// in between bumps it and the result below is stored where nobody looks.
	var gen int64
	cacheable := false
	if s.cache != nil {
		cached, g, err := s.cache.Get(ctx, examID)
		if err == nil {
			return cached, nil
		}
		if errors.Is(err, repository.ErrNotFound) {
			gen, cacheable = g, true
		} else {
			s.log.Warn().Err(err).Int64("exam_id", examID).Msg("Analytics cache read failed")
		}
	}

	scores, err := s.attempts.ListGradedScores(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list graded scores: %w", err)
	}
	out := BuildAnalytics(exam, scores)

	if cacheable {
		if err := s.cache.Set(ctx, out, gen); err != nil {
			s.log.Warn().Err(err).Int64("exam_id", examID).Msg("Analytics cache write failed")
		}
	}
	return out, nil
}

// AttemptActivity returns an attempt's counters and its activity log.
func (s *AnalyticsService) AttemptActivity(ctx context.Context, attemptID int64) (*model.ActivityReview, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	entries, err := s.activity.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	return &model.ActivityReview{
		AttemptID:            attempt.ID,
		StudentID:            attempt.StudentID,
		ExamID:               attempt.ExamID,
		Status:               attempt.Status,
		TabSwitchesCount:     attempt.TabSwitchesCount,
		FullscreenExitsCount: attempt.FullscreenExitsCount,
		Entries:              entries,
	}, nil
}
