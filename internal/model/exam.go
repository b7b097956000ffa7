package model

import (
	"time"
)

// Exam is an admin-authored timed exam. Its question list lives in exam_questions.
type Exam struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	DurationMinutes    int        `json:"duration"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	IsPublished        bool       `json:"is_published"`
	IsPracticeMode     bool       `json:"is_practice_mode"`
	RandomizeQuestions bool       `json:"randomize_questions"`
	RandomizeOptions   bool       `json:"randomize_options"`
	EnableAntiCheating bool       `json:"enable_anti_cheating"`
	RequireFullscreen  bool       `json:"require_fullscreen"`
	PassingScore       float64    `json:"passing_score"`
	QuestionCount      int        `json:"questions_count"`
	CreatedAt          time.Time  `json:"created_at"`
	DeletedAt          *time.Time `json:"-"`
}

// IsActive reports whether students may start the exam at now.
// Both window bounds are inclusive.
func (e *Exam) IsActive(now time.Time) bool {
	if !e.IsPublished || e.DeletedAt != nil {
		return false
	}
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

// Duration returns the per-attempt time budget.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// ExamMeta is the display metadata sent with an attempt's questions.
type ExamMeta struct {
	Title              string `json:"title"`
	DurationMinutes    int    `json:"duration"`
	IsPracticeMode     bool   `json:"is_practice_mode"`
	EnableAntiCheating bool   `json:"enable_anti_cheating"`
	RequireFullscreen  bool   `json:"require_fullscreen"`
	RandomizeOptions   bool   `json:"randomize_options"`
}

// Meta strips everything but the display fields.
func (e *Exam) Meta() ExamMeta {
	return ExamMeta{
		Title:              e.Title,
		DurationMinutes:    e.DurationMinutes,
		IsPracticeMode:     e.IsPracticeMode,
		EnableAntiCheating: e.EnableAntiCheating,
		RequireFullscreen:  e.RequireFullscreen,
		RandomizeOptions:   e.RandomizeOptions,
	}
}

// ExamPayload is what a student receives for an in-progress attempt.
// It never carries correct answers or explanations.
type ExamPayload struct {
	AttemptID     int64                `json:"attempt_id"`
	Exam          ExamMeta             `json:"exam"`
	Questions     []QuestionForStudent `json:"questions"`
	RemainingTime int64                `json:"remaining_time"`
}
