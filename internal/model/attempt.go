package model

import (
	"time"
)

// AttemptStatus enumerates attempt lifecycle states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
	AttemptStatusGraded     AttemptStatus = "graded"
)

// Attempt is one student's timed engagement with one exam.
type Attempt struct {
	ID                   int64         `json:"id"`
	StudentID            int64         `json:"student_id"`
	ExamID               int64         `json:"exam_id"`
	SessionToken         string        `json:"-"`
	StartedAt            time.Time     `json:"started_at"`
	SubmittedAt          *time.Time    `json:"submitted_at,omitempty"`
	TotalScore           *float64      `json:"total_score,omitempty"`
	Percentage           *float64      `json:"percentage,omitempty"`
	Status               AttemptStatus `json:"status"`
	TabSwitchesCount     int           `json:"tab_switches_count"`
	FullscreenExitsCount int           `json:"fullscreen_exits_count"`
	QuestionOrder        []int64       `json:"question_order"`
	DeletedAt            *time.Time    `json:"-"`
}

// Deadline is the instant the attempt's time budget runs out.
func (a *Attempt) Deadline(durationMinutes int) time.Time {
	return a.StartedAt.Add(time.Duration(durationMinutes) * time.Minute)
}

// RemainingSeconds is max(0, duration*60 - whole seconds elapsed since start).
func (a *Attempt) RemainingSeconds(durationMinutes int, now time.Time) int64 {
	elapsed := int64(now.Sub(a.StartedAt) / time.Second)
	remaining := int64(durationMinutes)*60 - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HasQuestion reports whether questionID is part of the frozen order.
func (a *Attempt) HasQuestion(questionID int64) bool {
	for _, id := range a.QuestionOrder {
		if id == questionID {
			return true
		}
	}
	return false
}

// Answer is the per-question record of an attempt, pre-created at start.
type Answer struct {
	ID             int64      `json:"id"`
	AttemptID      int64      `json:"attempt_id"`
	QuestionID     int64      `json:"question_id"`
	SelectedAnswer *OptionKey `json:"selected_answer"`
	IsBookmarked   bool       `json:"is_bookmarked"`
	TimeSpent      *int       `json:"time_spent"`
	IsCorrect      *bool      `json:"is_correct"`
	PointsEarned   *float64   `json:"points_earned"`
	AnsweredAt     *time.Time `json:"answered_at"`
}

// AnswerState is the subset of an Answer a student sees while the attempt runs.
type AnswerState struct {
	SelectedAnswer *OptionKey `json:"selected_answer"`
	IsBookmarked   bool       `json:"is_bookmarked"`
	TimeSpent      *int       `json:"time_spent"`
}

// State drops grading fields.
func (a *Answer) State() *AnswerState {
	return &AnswerState{
		SelectedAnswer: a.SelectedAnswer,
		IsBookmarked:   a.IsBookmarked,
		TimeSpent:      a.TimeSpent,
	}
}

// StartExamResponse is returned when an attempt is created.
type StartExamResponse struct {
	AttemptID     int64  `json:"attempt_id"`
	SessionToken  string `json:"session_token"`
	RemainingTime int64  `json:"remaining_time"`
}

// ResumeState tells the client whether it can continue an attempt.
type ResumeState struct {
	AttemptID     int64         `json:"attempt_id"`
	Resumable     bool          `json:"resumable"`
	AutoSubmitted bool          `json:"auto_submitted"`
	Status        AttemptStatus `json:"status"`
	SessionToken  string        `json:"session_token,omitempty"`
	RemainingTime int64         `json:"remaining_time"`
	TotalScore    *float64      `json:"total_score,omitempty"`
	Percentage    *float64      `json:"percentage,omitempty"`
}

// SubmitResult is returned after grading.
type SubmitResult struct {
	AttemptID     int64   `json:"attempt_id"`
	TotalScore    float64 `json:"total_score"`
	TotalPossible float64 `json:"total_possible"`
	Percentage    float64 `json:"percentage"`
}

// SubmitAnswerRequest is the auto-save payload.
type SubmitAnswerRequest struct {
	QuestionID     int64   `json:"question_id" binding:"required,gt=0"`
	SelectedAnswer *string `json:"selected_answer" binding:"omitempty,oneof=a b c d"`
	TimeSpent      *int    `json:"time_spent" binding:"omitempty,min=0"`
}

// BookmarkRequest toggles a question's bookmark.
type BookmarkRequest struct {
	QuestionID int64 `json:"question_id" binding:"required,gt=0"`
}

// LogActivityRequest reports a client-observed anti-cheating signal.
type LogActivityRequest struct {
	ActivityType string `json:"activity_type" binding:"required,oneof=tab_switch fullscreen_exit"`
}
