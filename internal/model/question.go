package model

// OptionKey identifies one of the four choices of a question.
type OptionKey string

const (
	OptionA OptionKey = "a"
	OptionB OptionKey = "b"
	OptionC OptionKey = "c"
	OptionD OptionKey = "d"
)

// OptionKeys lists the option letters in canonical order.
var OptionKeys = [4]OptionKey{OptionA, OptionB, OptionC, OptionD}

// ParseOptionKey validates a raw option letter.
func ParseOptionKey(s string) (OptionKey, bool) {
	for _, k := range OptionKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Option is one labelled choice.
type Option struct {
	Key   OptionKey `json:"key"`
	Text  string    `json:"text"`
	Image *string   `json:"image,omitempty"`
}

// Question is an immutable snapshot from the question bank.
type Question struct {
	ID             int64     `json:"id"`
	Subject        string    `json:"subject"`
	Difficulty     string    `json:"difficulty"`
	Text           string    `json:"question_text"`
	Image          *string   `json:"question_image,omitempty"`
	HasFormula     bool      `json:"has_formula"`
	Options        [4]Option `json:"options"`
	CorrectAnswer  OptionKey `json:"correct_answer"`
	Explanation    *string   `json:"explanation,omitempty"`
	Points         float64   `json:"points"`
	NegativePoints *float64  `json:"negative_points,omitempty"`
}

// QuestionForStudent is a question without the correct answer or explanation,
// annotated with the caller's own answer state.
type QuestionForStudent struct {
	ID             int64        `json:"id"`
	Subject        string       `json:"subject"`
	Difficulty     string       `json:"difficulty"`
	Text           string       `json:"question_text"`
	Image          *string      `json:"question_image,omitempty"`
	HasFormula     bool         `json:"has_formula"`
	Options        []Option     `json:"options"`
	Points         float64      `json:"points"`
	NegativePoints *float64     `json:"negative_points,omitempty"`
	Answer         *AnswerState `json:"answer,omitempty"`
}

// ForStudent copies the display fields. Options are returned in the given order.
func (q *Question) ForStudent(order [4]Option) QuestionForStudent {
	opts := make([]Option, len(order))
	copy(opts, order[:])
	return QuestionForStudent{
		ID:             q.ID,
		Subject:        q.Subject,
		Difficulty:     q.Difficulty,
		Text:           q.Text,
		Image:          q.Image,
		HasFormula:     q.HasFormula,
		Options:        opts,
		Points:         q.Points,
		NegativePoints: q.NegativePoints,
	}
}
