package websocket

import "github.com/konkoor/konkoor-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionBookmark Action = "bookmark"
	ActionActivity Action = "activity"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// Request is every client frame. Fields unused by the action are ignored.
type Request struct {
	Action         Action  `json:"action"`
	QuestionID     int64   `json:"question_id,omitempty"`
	SelectedAnswer *string `json:"selected_answer,omitempty"`
	TimeSpent      *int    `json:"time_spent,omitempty"`
	ActivityType   string  `json:"activity_type,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError      Event = "error"
	EventSaved      Event = "saved"
	EventBookmarked Event = "bookmarked"
	EventLogged     Event = "logged"
	EventGraded     Event = "graded"
	EventPong       Event = "pong"
)

type SavedResponse struct {
	Event      Event              `json:"event"`
	QuestionID int64              `json:"question_id"`
	Answer     *model.AnswerState `json:"answer"`
}

type BookmarkedResponse struct {
	Event        Event `json:"event"`
	QuestionID   int64 `json:"question_id"`
	IsBookmarked bool  `json:"is_bookmarked"`
}

type GradedResponse struct {
	Event  Event               `json:"event"`
	Result *model.SubmitResult `json:"result"`
}

// ErrorResponse carries the same code and localized message as the REST envelope.
type ErrorResponse struct {
	Event   Event  `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AckResponse is used for events that carry no body.
type AckResponse struct {
	Event Event `json:"event"`
}
