package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/survivor-league/internal/app"
	"github.com/riskibarqy/survivor-league/internal/config"
	"github.com/riskibarqy/survivor-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"github.com/riskibarqy/survivor-league/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(t *testing.T) *app.Container {
	t.Helper()
	c, err := app.Build(context.Background(), config.Config{
		StorageDriver:        config.StorageMemory,
		CacheEnabled:         true,
		CacheTTL:             time.Minute,
		DefaultStartingLives: 2,
		SettlementMaxWorkers: 2,
		SettlementCASRetries: 3,
		AuditMaxWorkers:      2,
	}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRun_SettlePenaltiesThenAudit(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)

	var out, summary bytes.Buffer
	require.NoError(t, run(ctx, c, []string{"settle", memory.LeagueIDMain, "1"}, &out, &summary))

	var settled usecase.SettlementReport
	require.NoError(t, sonic.Unmarshal(out.Bytes(), &settled))
	assert.Equal(t, memory.LeagueIDMain, settled.LeagueID)
	assert.Equal(t, 2, settled.Processed)
	assert.Equal(t, 1, settled.Losses)
	assert.Contains(t, summary.String(), "settle league="+memory.LeagueIDMain)
	assert.Contains(t, summary.String(), " losses=1 ")

	out.Reset()
	summary.Reset()
	require.NoError(t, run(ctx, c, []string{"penalties", memory.LeagueIDMain, "1"}, &out, &summary))
	var penalized usecase.SettlementReport
	require.NoError(t, sonic.Unmarshal(out.Bytes(), &penalized))
	assert.Equal(t, 1, penalized.Losses)

	out.Reset()
	summary.Reset()
	require.NoError(t, run(ctx, c, []string{"audit", memory.LeagueIDMain}, &out, &summary))
	var report usecase.AuditReport
	require.NoError(t, sonic.Unmarshal(out.Bytes(), &report))
	assert.Empty(t, report.Discrepancies)
	assert.Contains(t, summary.String(), "discrepancies=0")

	runs, err := c.JobRun.Recent(ctx, memory.LeagueIDMain, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, runs)
}

func TestRun_ReconcileRequiresConfirm(t *testing.T) {
	c := newTestContainer(t)
	var out, summary bytes.Buffer

	err := run(context.Background(), c, []string{"reconcile", memory.LeagueIDMain}, &out, &summary)
	require.ErrorIs(t, err, usecase.ErrConfirmationRequired)
	assert.Zero(t, out.Len())

	require.NoError(t, run(context.Background(), c, []string{"reconcile", memory.LeagueIDMain, "confirm"}, &out, &summary))
	assert.Contains(t, summary.String(), "reconcile league="+memory.LeagueIDMain)
}

func TestRun_ArgumentErrors(t *testing.T) {
	c := newTestContainer(t)
	cases := map[string][]string{
		"no args":         nil,
		"unknown command": {"replay", memory.LeagueIDMain},
		"missing week":    {"settle", memory.LeagueIDMain},
		"bad week":        {"penalties", memory.LeagueIDMain, "zero"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var out, summary bytes.Buffer
			err := run(context.Background(), c, args, &out, &summary)
			require.ErrorIs(t, err, usecase.ErrInvalidInput)
		})
	}
}

func TestSummaryLine_SortsKeys(t *testing.T) {
	got := summaryLine("audit", "nfl", map[string]any{"orphans": 0, "discrepancies": 2})
	assert.Equal(t, "audit league=nfl discrepancies=2 orphans=0\n", got)
}
