package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/konkoor/konkoor-backend/internal/model"
)

const examColumns = `e.id, e.title, e.description, e.duration, e.start_time, e.end_time,
	e.is_published, e.is_practice_mode, e.randomize_questions, e.randomize_options,
	e.enable_anti_cheating, e.require_fullscreen, e.passing_score, e.created_at, e.deleted_at,
	(SELECT COUNT(*) FROM exam_questions eq
	 JOIN questions q ON q.id = eq.question_id AND q.deleted_at IS NULL
	 WHERE eq.exam_id = e.id)`

// ExamRepository reads exams. Exams are authored elsewhere; this core never writes them.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row interface{ Scan(...any) error }, e *model.Exam) error {
	return row.Scan(
		&e.ID, &e.Title, &e.Description, &e.DurationMinutes, &e.StartTime, &e.EndTime,
		&e.IsPublished, &e.IsPracticeMode, &e.RandomizeQuestions, &e.RandomizeOptions,
		&e.EnableAntiCheating, &e.RequireFullscreen, &e.PassingScore, &e.CreatedAt, &e.DeletedAt,
		&e.QuestionCount,
	)
}

// GetByID returns an exam, soft-deleted ones included.
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	e := &model.Exam{}
	err := scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams e WHERE e.id = $1`, id,
	), e)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// ListAvailable returns published exams whose window contains now and that the
// student has never attempted.
func (r *ExamRepository) ListAvailable(ctx context.Context, studentID int64, now time.Time) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+`
		 FROM exams e
		 WHERE e.is_published
		   AND e.deleted_at IS NULL
		   AND e.start_time <= $2 AND e.end_time >= $2
		   AND NOT EXISTS (
		       SELECT 1 FROM attempts a
		       WHERE a.exam_id = e.id AND a.student_id = $1 AND a.deleted_at IS NULL
		         AND a.status IN ('in_progress', 'submitted', 'graded'))
		 ORDER BY e.start_time, e.id`, studentID, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := make([]model.Exam, 0)
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
