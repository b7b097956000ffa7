package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/rs/zerolog"
)

// ProgressSource reads live attempt state for an exam.
type ProgressSource interface {
	ListAttemptProgress(ctx context.Context, examID int64) ([]model.AttemptProgress, error)
	AnsweredCounts(ctx context.Context, examID int64) (map[int64]int, error)
}

// MonitorService builds the admin live monitor snapshot.
type MonitorService struct {
	exams    ExamStore
	progress ProgressSource
	log      zerolog.Logger
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(exams ExamStore, progress ProgressSource, log zerolog.Logger) *MonitorService {
	return &MonitorService{
		exams:    exams,
		progress: progress,
		log:      log.With().Str("component", "monitor_service").Logger(),
	}
}

// Snapshot returns every attempt of the exam with answered counts and totals.
// The two reads run concurrently. Attempt rows are required; answered counts
// are best-effort and left at zero when they fail.
func (s *MonitorService) Snapshot(ctx context.Context, examID int64) (*model.MonitorSnapshot, error) {
	exam, err := lookupExam(ctx, s.exams, examID)
	if err != nil {
		return nil, err
	}

	var (
		attempts    []model.AttemptProgress
		answered    map[int64]int
		attemptsErr error
		answeredErr error
		wg          sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		attempts, attemptsErr = s.progress.ListAttemptProgress(ctx, examID)
	}()
	go func() {
		defer wg.Done()
		answered, answeredErr = s.progress.AnsweredCounts(ctx, examID)
	}()
	wg.Wait()

	if attemptsErr != nil {
		return nil, fmt.Errorf("list attempt progress: %w", attemptsErr)
	}
	if answeredErr != nil {
		s.log.Warn().Err(answeredErr).Int64("exam_id", examID).Msg("Failed to count answers for monitor")
	}

	snap := &model.MonitorSnapshot{
		ExamID:        exam.ID,
		Exam:          exam.Meta(),
		QuestionCount: exam.QuestionCount,
		TotalJoined:   len(attempts),
		Attempts:      attempts,
	}
	if snap.Attempts == nil {
		snap.Attempts = []model.AttemptProgress{}
	}
	for i := range snap.Attempts {
		a := &snap.Attempts[i]
		a.AnsweredCount = answered[a.AttemptID]
		if a.Status == model.AttemptStatusInProgress {
			snap.InProgress++
		} else {
			snap.Completed++
		}
		snap.TotalFlagged += a.TabSwitchesCount + a.FullscreenExitsCount
	}
	return snap, nil
}
