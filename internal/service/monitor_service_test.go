package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeProgress struct {
	attempts    []model.AttemptProgress
	answered    map[int64]int
	attemptsErr error
	answeredErr error
}

func (f *fakeProgress) ListAttemptProgress(context.Context, int64) ([]model.AttemptProgress, error) {
	return f.attempts, f.attemptsErr
}

func (f *fakeProgress) AnsweredCounts(context.Context, int64) (map[int64]int, error) {
	return f.answered, f.answeredErr
}

func TestMonitorSnapshot(t *testing.T) {
	f := newFixture(t)
	pct := 62.5
	progress := &fakeProgress{
		attempts: []model.AttemptProgress{
			{AttemptID: 1, StudentID: 7, Status: model.AttemptStatusInProgress, StartedAt: t0, TabSwitchesCount: 2},
			{AttemptID: 2, StudentID: 8, Status: model.AttemptStatusGraded, StartedAt: t0.Add(time.Minute), FullscreenExitsCount: 1, Percentage: &pct},
		},
		answered: map[int64]int{1: 1, 2: 2},
	}
	svc := NewMonitorService(f.exams, progress, zerolog.Nop())

	snap, err := svc.Snapshot(context.Background(), examID)
	require.NoError(t, err)
	require.Equal(t, examID, snap.ExamID)
	require.Equal(t, 2, snap.TotalJoined)
	require.Equal(t, 1, snap.InProgress)
	require.Equal(t, 1, snap.Completed)
	require.Equal(t, 3, snap.TotalFlagged)
	require.Equal(t, 1, snap.Attempts[0].AnsweredCount)
	require.Equal(t, 2, snap.Attempts[1].AnsweredCount)
}

func TestMonitorSnapshotToleratesCountFailure(t *testing.T) {
	f := newFixture(t)
	progress := &fakeProgress{
		attempts:    []model.AttemptProgress{{AttemptID: 1, Status: model.AttemptStatusInProgress}},
		answeredErr: errors.New("timeout"),
	}
	svc := NewMonitorService(f.exams, progress, zerolog.Nop())

	snap, err := svc.Snapshot(context.Background(), examID)
	require.NoError(t, err)
	require.Zero(t, snap.Attempts[0].AnsweredCount)
}

func TestMonitorSnapshotErrors(t *testing.T) {
	f := newFixture(t)

	svc := NewMonitorService(f.exams, &fakeProgress{}, zerolog.Nop())
	_, err := svc.Snapshot(context.Background(), 404)
	requireDomainErr(t, err, ErrExamNotFound)

	snap, err := svc.Snapshot(context.Background(), examID)
	require.NoError(t, err)
	require.NotNil(t, snap.Attempts)
	require.Empty(t, snap.Attempts)

	svc = NewMonitorService(f.exams, &fakeProgress{attemptsErr: errors.New("db down")}, zerolog.Nop())
	_, err = svc.Snapshot(context.Background(), examID)
	require.Error(t, err)
	require.Equal(t, KindInternal, KindOf(err))
}
