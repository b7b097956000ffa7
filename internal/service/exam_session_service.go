package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/konkoor/konkoor-backend/internal/metrics"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ShuffleFunc permutes n elements in place through swap.
type ShuffleFunc func(n int, swap func(i, j int))

// ExamSessionService runs the attempt lifecycle: start, question delivery,
// answer intake, resume and grading.
type ExamSessionService struct {
	exams     ExamStore
	questions QuestionStore
	attempts  AttemptStore
	activity  ActivityRecorder
	events    EventPublisher
	analytics AnalyticsCache
	shuffle   ShuffleFunc
	newToken  func() string
	log       zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	exams ExamStore,
	questions QuestionStore,
	attempts AttemptStore,
	activity ActivityRecorder,
	events EventPublisher,
	analytics AnalyticsCache,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		exams:     exams,
		questions: questions,
		attempts:  attempts,
		activity:  activity,
		events:    events,
		analytics: analytics,
		shuffle:   rand.Shuffle,
		newToken:  uuid.NewString,
		log:       log.With().Str("component", "exam_session_service").Logger(),
	}
}

// WithShuffle replaces the permutation source used for question and option order.
func (s *ExamSessionService) WithShuffle(fn ShuffleFunc) *ExamSessionService {
	s.shuffle = fn
	return s
}

// ListAvailable returns exams the student can start right now.
func (s *ExamSessionService) ListAvailable(ctx context.Context, studentID int64, now time.Time) ([]model.Exam, error) {
	exams, err := s.exams.ListAvailable(ctx, studentID, now)
	if err != nil {
		return nil, fmt.Errorf("list available exams: %w", err)
	}
	return exams, nil
}

// Start creates an attempt with a frozen question order and one answer
// placeholder per question.
func (s *ExamSessionService) Start(ctx context.Context, studentID, examID int64, now time.Time) (*model.StartExamResponse, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.IsActive(now) {
		return nil, ErrExamNotActive
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}

	order := make([]int64, len(questions))
	for i := range questions {
		order[i] = questions[i].ID
	}
	if exam.RandomizeQuestions {
		s.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	attempt := &model.Attempt{
		StudentID:     studentID,
		ExamID:        examID,
		SessionToken:  s.newToken(),
		StartedAt:     now,
		QuestionOrder: order,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrActiveAttemptExists) {
			return nil, ErrAttemptExists
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	metrics.AttemptsStarted().Inc()
	s.publish(ctx, model.MonitorEvent{
		Type: model.MonitorEventStarted, ExamID: examID, AttemptID: attempt.ID, StudentID: studentID, At: now,
	})
	s.log.Info().Int64("attempt_id", attempt.ID).Int64("exam_id", examID).Int64("student_id", studentID).Msg("Attempt started")

	return &model.StartExamResponse{
		AttemptID:     attempt.ID,
		SessionToken:  attempt.SessionToken,
		RemainingTime: attempt.RemainingSeconds(exam.DurationMinutes, now),
	}, nil
}

// GetQuestions returns the answer-stripped question payload in the attempt's frozen order.
func (s *ExamSessionService) GetQuestions(ctx context.Context, studentID, attemptID int64, sessionToken string, now time.Time) (*model.ExamPayload, error) {
	attempt, exam, err := s.liveAttempt(ctx, studentID, attemptID, sessionToken, now)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}
	answers, err := s.attempts.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	byID := indexQuestions(questions)
	answerOf := make(map[int64]*model.Answer, len(answers))
	for i := range answers {
		answerOf[answers[i].QuestionID] = &answers[i]
	}

	payload := &model.ExamPayload{
		AttemptID:     attempt.ID,
		Exam:          exam.Meta(),
		Questions:     make([]model.QuestionForStudent, 0, len(attempt.QuestionOrder)),
		RemainingTime: attempt.RemainingSeconds(exam.DurationMinutes, now),
	}
	for _, qid := range attempt.QuestionOrder {
		q, ok := byID[qid]
		if !ok {
			continue
		}
		opts := q.Options
		if exam.RandomizeOptions {
			s.shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
		}
		item := q.ForStudent(opts)
		if a, ok := answerOf[qid]; ok {
			item.Answer = a.State()
		}
		payload.Questions = append(payload.Questions, item)
	}
	return payload, nil
}

// Resume reports whether an attempt can continue, auto-submitting it when its time is up.
func (s *ExamSessionService) Resume(ctx context.Context, studentID, attemptID int64, now time.Time) (*model.ResumeState, error) {
	attempt, exam, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, ErrNotResumable
	}

	remaining := attempt.RemainingSeconds(exam.DurationMinutes, now)
	if remaining == 0 {
		graded, err := s.autoSubmit(ctx, attempt, exam)
		if err != nil {
			return nil, err
		}
		return &model.ResumeState{
			AttemptID:     graded.ID,
			AutoSubmitted: true,
			Status:        graded.Status,
			TotalScore:    graded.TotalScore,
			Percentage:    graded.Percentage,
		}, nil
	}

	return &model.ResumeState{
		AttemptID:     attempt.ID,
		Resumable:     true,
		Status:        attempt.Status,
		SessionToken:  attempt.SessionToken,
		RemainingTime: remaining,
	}, nil
}

func (s *ExamSessionService) getExam(ctx context.Context, examID int64) (*model.Exam, error) {
	return lookupExam(ctx, s.exams, examID)
}

// ownedAttempt loads an attempt and its exam, checking the caller owns it.
func (s *ExamSessionService) ownedAttempt(ctx context.Context, studentID, attemptID int64) (*model.Attempt, *model.Exam, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, nil, ErrAttemptNotOwned
	}
	exam, err := s.getExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, exam, nil
}

// liveAttempt is the gate for every session-bound operation: ownership,
// session token, in_progress status and remaining time, in that order.
// An expired attempt is auto-submitted and ErrTimeExpired returned.
func (s *ExamSessionService) liveAttempt(ctx context.Context, studentID, attemptID int64, sessionToken string, now time.Time) (*model.Attempt, *model.Exam, error) {
	attempt, exam, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if !sessionMatches(attempt, sessionToken) {
		return nil, nil, ErrInvalidSession
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, nil, ErrAttemptFinalized
	}
	if attempt.RemainingSeconds(exam.DurationMinutes, now) == 0 {
		if _, err := s.autoSubmit(ctx, attempt, exam); err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrTimeExpired
	}
	return attempt, exam, nil
}

func sessionMatches(a *model.Attempt, token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.SessionToken), []byte(token)) == 1
}

func (s *ExamSessionService) publish(ctx context.Context, ev model.MonitorEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", ev.Type).Int64("attempt_id", ev.AttemptID).Msg("Monitor publish failed")
	}
}
