package service

import (
	"context"
	"sync"
	"time"

	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/repository"
)

type fakeExams struct {
	exams map[int64]*model.Exam
}

func (f *fakeExams) GetByID(_ context.Context, id int64) (*model.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExams) ListAvailable(_ context.Context, _ int64, now time.Time) ([]model.Exam, error) {
	out := make([]model.Exam, 0)
	for _, e := range f.exams {
		if e.IsActive(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeQuestions struct {
	byExam map[int64][]model.Question
}

func (f *fakeQuestions) ListByExam(_ context.Context, examID int64) ([]model.Question, error) {
	qs := f.byExam[examID]
	out := make([]model.Question, len(qs))
	copy(out, qs)
	return out, nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	nextID   int64
	attempts map[int64]*model.Attempt
	answers  map[int64][]model.Answer

	// loseRace makes Finalize behave as if a concurrent auto-submit graded the attempt first.
	loseRace bool
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{
		attempts: make(map[int64]*model.Attempt),
		answers:  make(map[int64][]model.Answer),
	}
}

func (f *fakeAttempts) Create(_ context.Context, a *model.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.attempts {
		if existing.StudentID == a.StudentID && existing.ExamID == a.ExamID &&
			(existing.Status == model.AttemptStatusInProgress || existing.Status == model.AttemptStatusSubmitted) {
			return repository.ErrActiveAttemptExists
		}
	}

	f.nextID++
	a.ID = f.nextID
	a.Status = model.AttemptStatusInProgress
	cp := *a
	f.attempts[a.ID] = &cp

	rows := make([]model.Answer, len(a.QuestionOrder))
	for i, qid := range a.QuestionOrder {
		rows[i] = model.Answer{ID: a.ID*100 + int64(i), AttemptID: a.ID, QuestionID: qid}
	}
	f.answers[a.ID] = rows
	return nil
}

func (f *fakeAttempts) GetByID(_ context.Context, id int64) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttempts) ListAnswers(_ context.Context, attemptID int64) ([]model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Answer, len(f.answers[attemptID]))
	copy(out, f.answers[attemptID])
	return out, nil
}

func (f *fakeAttempts) answerRow(attemptID, questionID int64) (*model.Answer, error) {
	if f.attempts[attemptID].Status != model.AttemptStatusInProgress {
		return nil, repository.ErrAttemptNotInProgress
	}
	rows := f.answers[attemptID]
	for i := range rows {
		if rows[i].QuestionID == questionID {
			return &rows[i], nil
		}
	}
	return nil, repository.ErrAttemptNotInProgress
}

func (f *fakeAttempts) SaveAnswer(_ context.Context, attemptID, questionID int64, selected *model.OptionKey, timeSpent *int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, err := f.answerRow(attemptID, questionID)
	if err != nil {
		return err
	}
	row.SelectedAnswer = selected
	if timeSpent != nil {
		row.TimeSpent = timeSpent
	}
	row.AnsweredAt = &at
	return nil
}

func (f *fakeAttempts) ToggleBookmark(_ context.Context, attemptID, questionID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, err := f.answerRow(attemptID, questionID)
	if err != nil {
		return false, err
	}
	row.IsBookmarked = !row.IsBookmarked
	return row.IsBookmarked, nil
}

func (f *fakeAttempts) IncrementActivityCounter(_ context.Context, attemptID int64, activity model.ActivityType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.attempts[attemptID]
	if a.Status != model.AttemptStatusInProgress {
		return repository.ErrAttemptNotInProgress
	}
	switch activity {
	case model.ActivityTabSwitch:
		a.TabSwitchesCount++
	case model.ActivityFullscreenExit:
		a.FullscreenExitsCount++
	}
	return nil
}

func (f *fakeAttempts) Finalize(_ context.Context, attemptID int64, submittedAt time.Time, grade repository.GradeFunc) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.attempts[attemptID]
	if !ok || a.Status != model.AttemptStatusInProgress {
		return nil, repository.ErrAttemptNotInProgress
	}

	in := make([]model.Answer, len(f.answers[attemptID]))
	copy(in, f.answers[attemptID])
	graded, total, pct := grade(in)

	f.answers[attemptID] = graded
	a.Status = model.AttemptStatusGraded
	a.SubmittedAt = &submittedAt
	a.TotalScore = &total
	a.Percentage = &pct

	if f.loseRace {
		return nil, repository.ErrAttemptNotInProgress
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttempts) ListGradedScores(_ context.Context, examID int64) ([]model.GradedScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.GradedScore, 0)
	for _, a := range f.attempts {
		if a.ExamID == examID && a.Status == model.AttemptStatusGraded {
			out = append(out, model.GradedScore{AttemptID: a.ID, TotalScore: *a.TotalScore, Percentage: *a.Percentage})
		}
	}
	return out, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []model.ActivityLogEntry
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, e model.ActivityLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeRecorder) ListByAttempt(_ context.Context, attemptID int64) ([]model.ActivityLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ActivityLogEntry, 0)
	for _, e := range f.entries {
		if e.AttemptID == attemptID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRecorder) types() []model.ActivityType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ActivityType, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.ActivityType
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.MonitorEvent
}

func (f *fakePublisher) Publish(_ context.Context, ev model.MonitorEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

type fakeAnalyticsCache struct {
	mu          sync.Mutex
	store       map[int64]*model.ExamAnalytics
	storedGen   map[int64]int64
	gen         map[int64]int64
	invalidated []int64
	gets        int
	beforeSet   func()
}

func newFakeAnalyticsCache() *fakeAnalyticsCache {
	return &fakeAnalyticsCache{
		store:     make(map[int64]*model.ExamAnalytics),
		storedGen: make(map[int64]int64),
		gen:       make(map[int64]int64),
	}
}

func (f *fakeAnalyticsCache) Get(_ context.Context, examID int64) (*model.ExamAnalytics, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	gen := f.gen[examID]
	a, ok := f.store[examID]
	if !ok || f.storedGen[examID] != gen {
		return nil, gen, repository.ErrNotFound
	}
	return a, gen, nil
}

func (f *fakeAnalyticsCache) Set(_ context.Context, a *model.ExamAnalytics, gen int64) error {
	if f.beforeSet != nil {
		f.beforeSet()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[a.ExamID] = a
	f.storedGen[a.ExamID] = gen
	return nil
}

func (f *fakeAnalyticsCache) Invalidate(_ context.Context, examID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen[examID]++
	f.invalidated = append(f.invalidated, examID)
	return nil
}
