package service

import (
	"math"
	"sort"

	"github.com/konkoor/konkoor-backend/internal/model"
)

const distributionBuckets = 10

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// GradeAnswer scores one answer. Unanswered scores 0; a wrong answer costs
// |negative_points| when configured, never adds.
func GradeAnswer(selected *model.OptionKey, q *model.Question) (bool, float64) {
	if selected == nil {
		return false, 0
	}
	if *selected == q.CorrectAnswer {
		return true, q.Points
	}
	if q.NegativePoints != nil && *q.NegativePoints != 0 {
		return false, -math.Abs(*q.NegativePoints)
	}
	return false, 0
}

// Percentage is round(total/possible*100, 2), or 0 when nothing is possible.
func Percentage(total, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	return round2(total / possible * 100)
}

// Grade is the outcome of scoring every answer of an attempt.
type Grade struct {
	Answers       []model.Answer
	TotalScore    float64
	TotalPossible float64
	Percentage    float64
}

// GradeAttempt scores answers against question snapshots keyed by id.
// Answers whose question no longer exists score 0 and add nothing to the possible total.
// The input slice is not modified.
func GradeAttempt(answers []model.Answer, questions map[int64]*model.Question) Grade {
	g := Grade{Answers: make([]model.Answer, len(answers))}

	var total float64
	for i, a := range answers {
		correct, points := false, 0.0
		if q, ok := questions[a.QuestionID]; ok {
			correct, points = GradeAnswer(a.SelectedAnswer, q)
			g.TotalPossible += q.Points
		}
		a.IsCorrect = &correct
		a.PointsEarned = &points
		g.Answers[i] = a
		total += points
	}

	g.TotalScore = round2(total)
	g.TotalPossible = round2(g.TotalPossible)
	g.Percentage = Percentage(g.TotalScore, g.TotalPossible)
	return g
}

func indexQuestions(questions []model.Question) map[int64]*model.Question {
	m := make(map[int64]*model.Question, len(questions))
	for i := range questions {
		m[questions[i].ID] = &questions[i]
	}
	return m
}

// BuildResult assembles the report card of a graded attempt.
func BuildResult(exam *model.Exam, attempt *model.Attempt, answers []model.Answer, questions map[int64]*model.Question) *model.AttemptResult {
	res := &model.AttemptResult{
		AttemptID: attempt.ID,
		Exam: model.ResultExam{
			Title:          exam.Title,
			PassingScore:   exam.PassingScore,
			IsPracticeMode: exam.IsPracticeMode,
		},
		Attempt: model.ResultAttempt{
			StartedAt:            attempt.StartedAt,
			SubmittedAt:          attempt.SubmittedAt,
			TabSwitchesCount:     attempt.TabSwitchesCount,
			FullscreenExitsCount: attempt.FullscreenExitsCount,
		},
		SubjectBreakdown: make(map[string]model.SubjectStats),
		Answers:          make([]model.AnswerReview, 0, len(answers)),
	}
	if attempt.TotalScore != nil {
		res.Attempt.TotalScore = *attempt.TotalScore
	}
	if attempt.Percentage != nil {
		res.Attempt.Percentage = *attempt.Percentage
	}
	res.Passed = res.Attempt.Percentage >= exam.PassingScore

	byQuestion := make(map[int64]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	res.Stats.TotalQuestions = len(answers)
	for _, qid := range attempt.QuestionOrder {
		a, ok := byQuestion[qid]
		if !ok {
			continue
		}
		correct := a.IsCorrect != nil && *a.IsCorrect
		answered := a.SelectedAnswer != nil
		switch {
		case correct:
			res.Stats.Correct++
		case answered:
			res.Stats.Wrong++
		default:
			res.Stats.Unanswered++
		}

		q, ok := questions[qid]
		if !ok {
			continue
		}
		res.TotalPossible += q.Points

		s := res.SubjectBreakdown[q.Subject]
		s.Total++
		if correct {
			s.Correct++
		} else if answered {
			s.Wrong++
		}
		res.SubjectBreakdown[q.Subject] = s

		review := model.AnswerReview{
			QuestionID:     q.ID,
			Subject:        q.Subject,
			Text:           q.Text,
			Image:          q.Image,
			Options:        q.Options,
			SelectedAnswer: a.SelectedAnswer,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      correct,
			Points:         q.Points,
			Explanation:    q.Explanation,
			IsBookmarked:   a.IsBookmarked,
			TimeSpent:      a.TimeSpent,
		}
		if a.PointsEarned != nil {
			review.PointsEarned = *a.PointsEarned
		}
		res.Answers = append(res.Answers, review)
	}
	res.TotalPossible = round2(res.TotalPossible)
	return res
}

// BuildAnalytics aggregates graded scores of one exam. Pass means percentage >= passing score.
func BuildAnalytics(exam *model.Exam, scores []model.GradedScore) *model.ExamAnalytics {
	out := &model.ExamAnalytics{
		ExamID:            exam.ID,
		TotalParticipants: len(scores),
		PassingScore:      exam.PassingScore,
		Distribution:      make([]model.ScoreBucket, distributionBuckets),
	}
	for i := range out.Distribution {
		out.Distribution[i] = model.ScoreBucket{From: float64(i * 10), To: float64((i + 1) * 10)}
	}
	if len(scores) == 0 {
		return out
	}

	totals := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		totals[i] = s.TotalScore
		sum += s.TotalScore

		if s.Percentage >= exam.PassingScore {
			out.PassCount++
		} else {
			out.FailCount++
		}

		bucket := int(math.Floor(s.Percentage / 10))
		if bucket < 0 {
			bucket = 0
		}
		if bucket >= distributionBuckets {
			bucket = distributionBuckets - 1
		}
		out.Distribution[bucket].Count++
	}
	sort.Float64s(totals)

	n := len(totals)
	out.AverageScore = round2(sum / float64(n))
	out.LowestScore = totals[0]
	out.HighestScore = totals[n-1]
	if n%2 == 1 {
		out.MedianScore = round2(totals[n/2])
	} else {
		out.MedianScore = round2((totals[n/2-1] + totals[n/2]) / 2)
	}
	return out
}
