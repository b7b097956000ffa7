package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/konkoor/konkoor-backend/internal/model"
)

// QuestionRepository reads question snapshots for an exam.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam returns the exam's live questions in authored order.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.subject, q.difficulty, q.question_text, q.question_image, q.has_formula,
		        q.option_a, q.option_a_image, q.option_b, q.option_b_image,
		        q.option_c, q.option_c_image, q.option_d, q.option_d_image,
		        q.correct_answer, q.explanation, q.points, q.negative_points
		 FROM exam_questions eq
		 JOIN questions q ON q.id = eq.question_id
		 WHERE eq.exam_id = $1 AND q.deleted_at IS NULL
		 ORDER BY eq.position, q.id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.Question, 0)
	for rows.Next() {
		var (
			q       model.Question
			correct string
		)
		for i, k := range model.OptionKeys {
			q.Options[i].Key = k
		}
		if err := rows.Scan(
			&q.ID, &q.Subject, &q.Difficulty, &q.Text, &q.Image, &q.HasFormula,
			&q.Options[0].Text, &q.Options[0].Image, &q.Options[1].Text, &q.Options[1].Image,
			&q.Options[2].Text, &q.Options[2].Image, &q.Options[3].Text, &q.Options[3].Image,
			&correct, &q.Explanation, &q.Points, &q.NegativePoints,
		); err != nil {
			return nil, err
		}
		q.CorrectAnswer = model.OptionKey(correct)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
