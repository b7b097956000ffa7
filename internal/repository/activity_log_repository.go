package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/konkoor/konkoor-backend/internal/model"
)

// ActivityLogRepository appends and reads exam_activity_logs. Rows are never updated.
type ActivityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository creates a new ActivityLogRepository.
func NewActivityLogRepository(pool *pgxpool.Pool) *ActivityLogRepository {
	return &ActivityLogRepository{pool: pool}
}

// Insert writes a single entry.
func (r *ActivityLogRepository) Insert(ctx context.Context, e *model.ActivityLogEntry) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_activity_logs (attempt_id, activity_type, question_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		e.AttemptID, string(e.ActivityType), e.QuestionID, e.CreatedAt,
	).Scan(&e.ID)
}

// InsertBatch writes entries with COPY.
func (r *ActivityLogRepository) InsertBatch(ctx context.Context, entries []model.ActivityLogEntry) error {
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"exam_activity_logs"},
		[]string{"attempt_id", "activity_type", "question_id", "created_at"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{e.AttemptID, string(e.ActivityType), e.QuestionID, e.CreatedAt}, nil
		}),
	)
	return err
}

// ListByAttempt returns an attempt's entries oldest first.
func (r *ActivityLogRepository) ListByAttempt(ctx context.Context, attemptID int64) ([]model.ActivityLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, activity_type, question_id, created_at
		 FROM exam_activity_logs
		 WHERE attempt_id = $1
		 ORDER BY created_at, id`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]model.ActivityLogEntry, 0)
	for rows.Next() {
		var (
			e    model.ActivityLogEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.AttemptID, &kind, &e.QuestionID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ActivityType = model.ActivityType(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
