package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/konkoor/konkoor-backend/internal/model"
)

// MonitorRepository reads live attempt progress for the admin monitor.
type MonitorRepository struct {
	pool *pgxpool.Pool
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool) *MonitorRepository {
	return &MonitorRepository{pool: pool}
}

// ListAttemptProgress returns every attempt of the exam with its counters, oldest first.
// AnsweredCount is left zero; see AnsweredCounts.
func (r *MonitorRepository) ListAttemptProgress(ctx context.Context, examID int64) ([]model.AttemptProgress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, status, started_at, tab_switches_count, fullscreen_exits_count, percentage
		 FROM attempts
		 WHERE exam_id = $1 AND deleted_at IS NULL
		 ORDER BY started_at, id`,
		examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.AttemptProgress, 0)
	for rows.Next() {
		var p model.AttemptProgress
		if err := rows.Scan(&p.AttemptID, &p.StudentID, &p.Status, &p.StartedAt,
			&p.TabSwitchesCount, &p.FullscreenExitsCount, &p.Percentage); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AnsweredCounts returns attempt_id -> number of answered questions for the exam's attempts.
func (r *MonitorRepository) AnsweredCounts(ctx context.Context, examID int64) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT aa.attempt_id, COUNT(*)
		 FROM attempt_answers aa
		 JOIN attempts a ON a.id = aa.attempt_id
		 WHERE a.exam_id = $1 AND a.deleted_at IS NULL AND aa.selected_answer IS NOT NULL
		 GROUP BY aa.attempt_id`,
		examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
