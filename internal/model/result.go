package model

import (
	"time"
)

// ResultExam is the exam context of a report card.
type ResultExam struct {
	Title          string  `json:"title"`
	PassingScore   float64 `json:"passing_score"`
	IsPracticeMode bool    `json:"is_practice_mode"`
}

// ResultAttempt summarises a graded attempt.
type ResultAttempt struct {
	TotalScore           float64    `json:"total_score"`
	Percentage           float64    `json:"percentage"`
	StartedAt            time.Time  `json:"started_at"`
	SubmittedAt          *time.Time `json:"submitted_at"`
	TabSwitchesCount     int        `json:"tab_switches_count"`
	FullscreenExitsCount int        `json:"fullscreen_exits_count"`
}

// ResultStats counts answers by outcome. Wrong counts answered-but-incorrect only.
type ResultStats struct {
	TotalQuestions int `json:"total_questions"`
	Correct        int `json:"correct"`
	Wrong          int `json:"wrong"`
	Unanswered     int `json:"unanswered"`
}

// SubjectStats is one row of the subject breakdown.
type SubjectStats struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// AnswerReview is a graded answer with its question, safe to show after grading.
type AnswerReview struct {
	QuestionID     int64      `json:"question_id"`
	Subject        string     `json:"subject"`
	Text           string     `json:"question_text"`
	Image          *string    `json:"question_image,omitempty"`
	Options        [4]Option  `json:"options"`
	SelectedAnswer *OptionKey `json:"selected_answer"`
	CorrectAnswer  OptionKey  `json:"correct_answer"`
	IsCorrect      bool       `json:"is_correct"`
	PointsEarned   float64    `json:"points_earned"`
	Points         float64    `json:"points"`
	Explanation    *string    `json:"explanation,omitempty"`
	IsBookmarked   bool       `json:"is_bookmarked"`
	TimeSpent      *int       `json:"time_spent"`
}

// AttemptResult is the student's report card.
type AttemptResult struct {
	AttemptID        int64                   `json:"attempt_id"`
	Exam             ResultExam              `json:"exam"`
	Attempt          ResultAttempt           `json:"student_exam"`
	Stats            ResultStats             `json:"stats"`
	TotalPossible    float64                 `json:"total_possible"`
	Passed           bool                    `json:"passed"`
	SubjectBreakdown map[string]SubjectStats `json:"subject_breakdown"`
	Answers          []AnswerReview          `json:"answers"`
}

// ScoreBucket counts graded attempts whose percentage falls in [From, To).
// The last bucket is closed on both ends.
type ScoreBucket struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// ExamAnalytics aggregates graded attempts of one exam.
type ExamAnalytics struct {
	ExamID            int64         `json:"exam_id"`
	TotalParticipants int           `json:"total_participants"`
	AverageScore      float64       `json:"average_score"`
	MedianScore       float64       `json:"median_score"`
	HighestScore      float64       `json:"highest_score"`
	LowestScore       float64       `json:"lowest_score"`
	PassingScore      float64       `json:"passing_score"`
	PassCount         int           `json:"pass_count"`
	FailCount         int           `json:"fail_count"`
	Distribution      []ScoreBucket `json:"distribution"`
}

// GradedScore is the per-attempt input to analytics.
type GradedScore struct {
	AttemptID  int64   `json:"attempt_id"`
	TotalScore float64 `json:"total_score"`
	Percentage float64 `json:"percentage"`
}
