package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/jobrun"
	"github.com/riskibarqy/survivor-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunJob_RecordsCompletionWithSummary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewJobRunRepository()
	svc := NewJobRunService(repo, logging.NewNop())

	report, err := RunJob(ctx, svc, JobRun{
		RunID:    "msg-1",
		Name:     "settle-week",
		LeagueID: testLeagueID,
		Week:     3,
		Payload:  map[string]any{"week": 3},
	}, func(context.Context) (SettlementReport, error) {
		return SettlementReport{LeagueID: testLeagueID, Week: 3, Processed: 4, Losses: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Processed)

	runs, err := svc.Recent(ctx, testLeagueID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "msg-1", runs[0].RunID)
	assert.Equal(t, jobrun.StatusCompleted, runs[0].Status)
	assert.Equal(t, 3, runs[0].Payload["week"])
	assert.Equal(t, 1, runs[0].Payload["losses"])
}

func TestRunJob_RecordsFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewJobRunRepository()
	svc := NewJobRunService(repo, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC) }

	_, err := RunJob(ctx, svc, JobRun{Name: "audit league", LeagueID: testLeagueID}, func(context.Context) (AuditReport, error) {
		return AuditReport{}, errors.New("boom")
	})
	require.EqualError(t, err, "boom")

	runs, err := svc.Recent(ctx, testLeagueID, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, jobrun.StatusFailed, runs[0].Status)
	assert.Equal(t, "boom", runs[0].ErrorMessage)
	assert.True(t, strings.HasPrefix(runs[0].RunID, "manual-audit-league-nfl-test-"), runs[0].RunID)
}

func TestRunJob_NilServiceRunsJob(t *testing.T) {
	t.Parallel()

	got, err := RunJob(context.Background(), nil, JobRun{Name: "noop"}, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	var svc *JobRunService
	_, err = svc.Recent(context.Background(), testLeagueID, 5)
	assert.True(t, errors.Is(err, ErrDependencyUnavailable))
}
