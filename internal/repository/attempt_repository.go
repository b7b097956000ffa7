package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/konkoor/konkoor-backend/internal/model"
)

// GradeFunc scores an attempt's answers inside the finalization transaction.
// It returns the answers with IsCorrect and PointsEarned set.
type GradeFunc func(answers []model.Answer) (graded []model.Answer, totalScore, percentage float64)

// AttemptRepository persists attempts and their answer rows.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, student_id, exam_id, session_token, started_at, submitted_at,
	total_score, percentage, status, tab_switches_count, fullscreen_exits_count, question_order`

// guards every answer write against a concurrent finalization
const attemptLiveGuard = `EXISTS (
	SELECT 1 FROM attempts
	WHERE id = $1 AND status = 'in_progress' AND deleted_at IS NULL
	FOR SHARE)`

// Create inserts the attempt and one placeholder answer per question in a single transaction.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	a.Status = model.AttemptStatusInProgress

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO attempts (student_id, exam_id, session_token, started_at, status, question_order)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			a.StudentID, a.ExamID, a.SessionToken, a.StartedAt, string(a.Status), a.QuestionOrder,
		).Scan(&a.ID)
		if err != nil {
			return err
		}

		rows := make([][]any, len(a.QuestionOrder))
		for i, qid := range a.QuestionOrder {
			rows[i] = []any{a.ID, qid}
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"attempt_answers"},
			[]string{"attempt_id", "question_id"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return err
		}
		if n != int64(len(rows)) {
			return fmt.Errorf("created %d answer placeholders, want %d", n, len(rows))
		}
		return nil
	})
	if isUniqueViolation(err, activeAttemptIndex) {
		return ErrActiveAttemptExists
	}
	return err
}

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	var (
		a      model.Attempt
		status string
	)
	err := row.Scan(
		&a.ID, &a.StudentID, &a.ExamID, &a.SessionToken, &a.StartedAt, &a.SubmittedAt,
		&a.TotalScore, &a.Percentage, &status, &a.TabSwitchesCount, &a.FullscreenExitsCount, &a.QuestionOrder,
	)
	if err != nil {
		return nil, notFound(err)
	}
	a.Status = model.AttemptStatus(status)
	return &a, nil
}

func getAttempt(ctx context.Context, q querier, id int64) (*model.Attempt, error) {
	return scanAttempt(q.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1 AND deleted_at IS NULL`, id))
}

// GetByID returns a live (not soft-deleted) attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id int64) (*model.Attempt, error) {
	return getAttempt(ctx, r.pool, id)
}

func listAnswers(ctx context.Context, q querier, attemptID int64) ([]model.Answer, error) {
	rows, err := q.Query(ctx,
		`SELECT id, attempt_id, question_id, selected_answer, is_bookmarked, time_spent,
		        is_correct, points_earned, answered_at
		 FROM attempt_answers
		 WHERE attempt_id = $1
		 ORDER BY id`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make([]model.Answer, 0)
	for rows.Next() {
		var (
			a        model.Answer
			selected *string
		)
		if err := rows.Scan(
			&a.ID, &a.AttemptID, &a.QuestionID, &selected, &a.IsBookmarked, &a.TimeSpent,
			&a.IsCorrect, &a.PointsEarned, &a.AnsweredAt,
		); err != nil {
			return nil, err
		}
		if selected != nil {
			k := model.OptionKey(*selected)
			a.SelectedAnswer = &k
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ListAnswers returns every answer row of an attempt.
func (r *AttemptRepository) ListAnswers(ctx context.Context, attemptID int64) ([]model.Answer, error) {
	return listAnswers(ctx, r.pool, attemptID)
}

// SaveAnswer overwrites the selection on an existing placeholder. A nil
// timeSpent keeps the stored value.
func (r *AttemptRepository) SaveAnswer(ctx context.Context, attemptID, questionID int64, selected *model.OptionKey, timeSpent *int, at time.Time) error {
	var sel *string
	if selected != nil {
		s := string(*selected)
		sel = &s
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempt_answers
		 SET selected_answer = $3, time_spent = COALESCE($4, time_spent), answered_at = $5
		 WHERE attempt_id = $1 AND question_id = $2 AND `+attemptLiveGuard,
		attemptID, questionID, sel, timeSpent, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotInProgress
	}
	return nil
}

// ToggleBookmark flips the bookmark flag and returns the new value.
func (r *AttemptRepository) ToggleBookmark(ctx context.Context, attemptID, questionID int64) (bool, error) {
	var bookmarked bool
	err := r.pool.QueryRow(ctx,
		`UPDATE attempt_answers
		 SET is_bookmarked = NOT is_bookmarked
		 WHERE attempt_id = $1 AND question_id = $2 AND `+attemptLiveGuard+`
		 RETURNING is_bookmarked`,
		attemptID, questionID,
	).Scan(&bookmarked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrAttemptNotInProgress
	}
	return bookmarked, err
}

// IncrementActivityCounter bumps the counter matching a client-reported activity.
func (r *AttemptRepository) IncrementActivityCounter(ctx context.Context, attemptID int64, activity model.ActivityType) error {
	var column string
	switch activity {
	case model.ActivityTabSwitch:
		column = "tab_switches_count"
	case model.ActivityFullscreenExit:
		column = "fullscreen_exits_count"
	default:
		return fmt.Errorf("no counter for activity %q", activity)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts SET `+column+` = `+column+` + 1, updated_at = NOW()
		 WHERE id = $1 AND status = 'in_progress' AND deleted_at IS NULL`, attemptID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotInProgress
	}
	return nil
}

// Finalize moves an in_progress attempt to graded in one transaction.
// The status check-and-set happens first, so exactly one concurrent caller
// proceeds; the others get ErrAttemptNotInProgress.
func (r *AttemptRepository) Finalize(ctx context.Context, attemptID int64, submittedAt time.Time, grade GradeFunc) (*model.Attempt, error) {
	var out *model.Attempt

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE attempts SET status = $2, updated_at = NOW()
			 WHERE id = $1 AND status = $3 AND deleted_at IS NULL`,
			attemptID, string(model.AttemptStatusSubmitted), string(model.AttemptStatusInProgress),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAttemptNotInProgress
		}

		answers, err := listAnswers(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		graded, total, percentage := grade(answers)

		batch := &pgx.Batch{}
		for _, a := range graded {
			batch.Queue(
				`UPDATE attempt_answers SET is_correct = $2, points_earned = $3 WHERE id = $1`,
				a.ID, a.IsCorrect, a.PointsEarned,
			)
		}
		batch.Queue(
			`UPDATE attempts
			 SET status = $2, submitted_at = $3, total_score = $4, percentage = $5, updated_at = NOW()
			 WHERE id = $1`,
			attemptID, string(model.AttemptStatusGraded), submittedAt, total, percentage,
		)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}

		out, err = getAttempt(ctx, tx, attemptID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListGradedScores returns score rows of every graded attempt of an exam.
func (r *AttemptRepository) ListGradedScores(ctx context.Context, examID int64) ([]model.GradedScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, total_score, percentage
		 FROM attempts
		 WHERE exam_id = $1 AND status = 'graded' AND deleted_at IS NULL
		 ORDER BY total_score`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]model.GradedScore, 0)
	for rows.Next() {
		var s model.GradedScore
		if err := rows.Scan(&s.AttemptID, &s.TotalScore, &s.Percentage); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
