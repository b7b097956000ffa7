package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamQuestionsKey returns the cache key for an exam's ordered question snapshots.
// The cached value includes correct answers and never leaves the server.
func (r *CacheKeyStruct) ExamQuestionsKey(examID int64) string {
	return fmt.Sprintf("exam:%d:questions", examID)
}

// ExamAnalyticsKey returns the cache key for an exam's aggregated results
// computed at the given generation.
func (r *CacheKeyStruct) ExamAnalyticsKey(examID, gen int64) string {
	return fmt.Sprintf("exam:%d:analytics:%d", examID, gen)
}

// ExamAnalyticsGenKey holds the exam's analytics generation, bumped on every grading.
func (r *CacheKeyStruct) ExamAnalyticsGenKey(examID int64) string {
	return fmt.Sprintf("exam:%d:analytics:gen", examID)
}

// ExamMonitorChannel returns the Redis PubSub channel name for an exam monitor
func (r *CacheKeyStruct) ExamMonitorChannel(examID int64) string {
	return fmt.Sprintf("exam:%d:monitor", examID)
}

var CacheKey = NewCacheKeyStruct()
