package cache

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/survivor-league/internal/platform/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestGameRepository_CachesOnlyFinalWeeks(t *testing.T) {
	ctx := context.Background()
	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	pending := game.Game{ID: "g1", Season: 2025, Week: 1, HomeTeamID: "KC", AwayTeamID: "BUF", KickoffAt: kickoff}

	backing := memory.NewGameRepository([]game.Game{pending})
	repo := NewGameRepository(backing, basecache.NewStore(time.Minute))

	items, err := repo.ListBySeasonWeek(ctx, 2025, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].IsFinal)

	final := pending
	final.HomeScore, final.AwayScore, final.IsFinal = intPtr(24), intPtr(20), true
	backing.Put(final)

	items, err = repo.ListBySeasonWeek(ctx, 2025, 1)
	require.NoError(t, err)
	assert.True(t, items[0].IsFinal, "pending weeks must not be served from cache")

	corrected := final
	corrected.HomeScore = intPtr(17)
	backing.Put(corrected)

	items, err = repo.ListBySeasonWeek(ctx, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 24, *items[0].HomeScore, "final weeks are served from cache")

	got, exists, err := repo.GetByID(ctx, "g1")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, 17, *got.HomeScore)

	_, exists, err = repo.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}
