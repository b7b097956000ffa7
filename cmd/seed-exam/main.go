package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/database"
	"github.com/konkoor/konkoor-backend/internal/logger"
)

type seedQuestion struct {
	subject     string
	text        string
	options     [4]string
	correct     string
	explanation string
	points      float64
	negative    *float64
}

func main() {
	var (
		title    string
		duration int
		window   time.Duration
	)
	flag.StringVar(&title, "title", "آزمون آزمایشی کنکور", "Exam title")
	flag.IntVar(&duration, "duration", 30, "Exam duration in minutes")
	flag.DurationVar(&window, "window", 7*24*time.Hour, "How long the exam stays open from now")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	quarter := 0.25
	questions := []seedQuestion{
		{
			subject: "math", text: "حاصل ۲ + ۳ کدام است؟",
			options: [4]string{"۴", "۵", "۶", "۷"}, correct: "b",
			explanation: "۲ به علاوه ۳ برابر ۵ است.", points: 1,
		},
		{
			subject: "physics", text: "یکای نیرو در دستگاه SI کدام است؟",
			options: [4]string{"ژول", "وات", "نیوتن", "پاسکال"}, correct: "c",
			explanation: "نیرو بر حسب نیوتن اندازه‌گیری می‌شود.", points: 3, negative: &quarter,
		},
	}

	now := time.Now().UTC()
	var examID int64

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO exams (title, duration, start_time, end_time, is_published,
			                    randomize_questions, randomize_options, enable_anti_cheating, passing_score)
			 VALUES ($1, $2, $3, $4, TRUE, TRUE, TRUE, TRUE, 50)
			 RETURNING id`,
			title, duration, now.Add(-time.Hour), now.Add(window),
		).Scan(&examID); err != nil {
			return fmt.Errorf("insert exam: %w", err)
		}

		for i, q := range questions {
			var questionID int64
			if err := tx.QueryRow(ctx,
				`INSERT INTO questions (subject, question_text, option_a, option_b, option_c, option_d,
				                        correct_answer, explanation, points, negative_points)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				 RETURNING id`,
				q.subject, q.text, q.options[0], q.options[1], q.options[2], q.options[3],
				q.correct, q.explanation, q.points, q.negative,
			).Scan(&questionID); err != nil {
				return fmt.Errorf("insert question %d: %w", i+1, err)
			}

			if _, err := tx.Exec(ctx,
				`INSERT INTO exam_questions (exam_id, question_id, position) VALUES ($1, $2, $3)`,
				examID, questionID, i,
			); err != nil {
				return fmt.Errorf("link question %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Seed failed")
	}

	log.Info().Int64("exam_id", examID).Int("questions", len(questions)).Msg("Seeded exam")
	fmt.Println(examID)
}
