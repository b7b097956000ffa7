package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QuestionLister lists an exam's question snapshots.
type QuestionLister interface {
	ListByExam(ctx context.Context, examID int64) ([]model.Question, error)
}

// CachedQuestionStore is a read-through Redis cache over a QuestionLister.
// Cached snapshots include correct answers and must never be served to clients as-is.
type CachedQuestionStore struct {
	next QuestionLister
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewCachedQuestionStore wraps next with a Redis cache.
func NewCachedQuestionStore(next QuestionLister, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedQuestionStore {
	return &CachedQuestionStore{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "question_cache").Logger(),
	}
}

// ListByExam serves from Redis when possible. Cache failures fall through to the store.
func (s *CachedQuestionStore) ListByExam(ctx context.Context, examID int64) ([]model.Question, error) {
	key := config.CacheKey.ExamQuestionsKey(examID)

	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var questions []model.Question
		if err := json.Unmarshal(raw, &questions); err == nil {
			return questions, nil
		}
		s.log.Warn().Int64("exam_id", examID).Msg("Discarding corrupt question cache entry")
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Int64("exam_id", examID).Msg("Question cache read failed")
	}

	questions, err := s.next.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(questions)
	if err == nil {
		err = s.rdb.Set(ctx, key, data, s.ttl).Err()
	}
	if err != nil {
		s.log.Warn().Err(err).Int64("exam_id", examID).Msg("Question cache write failed")
	}
	return questions, nil
}

// Invalidate drops the cached snapshot of an exam.
func (s *CachedQuestionStore) Invalidate(ctx context.Context, examID int64) error {
	return s.rdb.Del(ctx, config.CacheKey.ExamQuestionsKey(examID)).Err()
}
