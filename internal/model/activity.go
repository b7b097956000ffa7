package model

import (
	"time"
)

// ActivityType enumerates logged in-exam activities.
type ActivityType string

const (
	ActivityTabSwitch      ActivityType = "tab_switch"
	ActivityFullscreenExit ActivityType = "fullscreen_exit"
	ActivityAnswerChange   ActivityType = "answer_change"
	ActivityBookmarkToggle ActivityType = "bookmark_toggle"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	return t.IsClientReported() || t == ActivityAnswerChange || t == ActivityBookmarkToggle
}

// IsClientReported reports whether students may submit this type directly.
func (t ActivityType) IsClientReported() bool {
	return t == ActivityTabSwitch || t == ActivityFullscreenExit
}

// ActivityLogEntry is an append-only anti-cheating record.
type ActivityLogEntry struct {
	ID           int64        `json:"id"`
	AttemptID    int64        `json:"attempt_id"`
	ActivityType ActivityType `json:"activity_type"`
	QuestionID   *int64       `json:"question_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ActivityReview is the admin view over an attempt's activity.
type ActivityReview struct {
	AttemptID            int64              `json:"attempt_id"`
	StudentID            int64              `json:"student_id"`
	ExamID               int64              `json:"exam_id"`
	Status               AttemptStatus      `json:"status"`
	TabSwitchesCount     int                `json:"tab_switches_count"`
	FullscreenExitsCount int                `json:"fullscreen_exits_count"`
	Entries              []ActivityLogEntry `json:"entries"`
}

// MonitorEvent is published on an exam's live monitor channel.
type MonitorEvent struct {
	Type       string    `json:"type"`
	ExamID     int64     `json:"exam_id"`
	AttemptID  int64     `json:"attempt_id"`
	StudentID  int64     `json:"student_id"`
	QuestionID *int64    `json:"question_id,omitempty"`
	Percentage *float64  `json:"percentage,omitempty"`
	At         time.Time `json:"at"`
}

const (
	MonitorEventStarted       = "attempt_started"
	MonitorEventAnswerSaved   = "answer_saved"
	MonitorEventBookmark      = "bookmark_toggled"
	MonitorEventActivity      = "activity"
	MonitorEventGraded        = "attempt_graded"
	MonitorEventAutoSubmitted = "attempt_auto_submitted"
)

// AttemptProgress is one attempt's live state on the admin monitor.
type AttemptProgress struct {
	AttemptID            int64         `json:"attempt_id"`
	StudentID            int64         `json:"student_id"`
	Status               AttemptStatus `json:"status"`
	StartedAt            time.Time     `json:"started_at"`
	AnsweredCount        int           `json:"answered_count"`
	TabSwitchesCount     int           `json:"tab_switches_count"`
	FullscreenExitsCount int           `json:"fullscreen_exits_count"`
	Percentage           *float64      `json:"percentage,omitempty"`
}

// MonitorSnapshot summarises every attempt of an exam for the live monitor.
type MonitorSnapshot struct {
	ExamID        int64             `json:"exam_id"`
	Exam          ExamMeta          `json:"exam"`
	QuestionCount int               `json:"question_count"`
	TotalJoined   int               `json:"total_joined"`
	InProgress    int               `json:"total_in_progress"`
	Completed     int               `json:"total_completed"`
	TotalFlagged  int               `json:"total_flagged_events"`
	Attempts      []AttemptProgress `json:"attempts"`
}
