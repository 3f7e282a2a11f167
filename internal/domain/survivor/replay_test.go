package survivor

import (
	"testing"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// season builds one final game per week where the home team wins.
func season(weeks int) map[string]game.Game {
	out := make(map[string]game.Game, weeks)
	for w := 1; w <= weeks; w++ {
		id := gameID(w)
		out[id] = finalGame(id, w, homeTeam(w), 24, awayTeam(w), 10)
	}
	return out
}

func gameID(week int) string   { return "g" + string(rune('a'+week)) }
func homeTeam(week int) string { return "H" + string(rune('a'+week)) }
func awayTeam(week int) string { return "A" + string(rune('a'+week)) }

func weeksUpTo(n int) []int {
	out := make([]int, 0, n)
	for w := 1; w <= n; w++ {
		out = append(out, w)
	}
	return out
}

func TestReplay_RoundTripLosses(t *testing.T) {
	games := season(6)
	for losses := 0; losses <= 3; losses++ {
		picks := make([]pick.Pick, 0, 6)
		for w := 1; w <= 6; w++ {
			team := homeTeam(w)
			if w <= losses {
				team = awayTeam(w)
			}
			picks = append(picks, pick.Pick{ID: gameID(w), Week: w, GameID: gameID(w), TeamID: team})
		}

		got := Replay(History{StartingLives: 2, FinalWeeks: weeksUpTo(6), Picks: picks, Games: games})

		wantLives := 2 - losses
		if wantLives < 0 {
			wantLives = 0
		}
		assert.Equal(t, wantLives, got.LivesRemaining, "losses=%d", losses)
		assert.Equal(t, wantLives == 0, got.Eliminated, "losses=%d", losses)
		if wantLives == 0 {
			require.NotNil(t, got.EliminatedWeek)
			assert.Equal(t, 2, *got.EliminatedWeek, "second loss eliminates")
			assert.Len(t, got.Losses, 2, "no charge after elimination")
		}
	}
}

func TestReplay_TieCostsALife(t *testing.T) {
	games := map[string]game.Game{
		"g1": finalGame("g1", 1, "PIT", 13, "CLE", 13),
	}
	got := Replay(History{
		StartingLives: 2,
		FinalWeeks:    []int{1},
		Picks:         []pick.Pick{{ID: "p1", Week: 1, GameID: "g1", TeamID: "PIT"}},
		Games:         games,
	})

	assert.Equal(t, 1, got.LivesRemaining)
	require.Len(t, got.Losses, 1)
	assert.Equal(t, LossTie, got.Losses[0].Reason)
}

func TestReplay_MissingPicksEliminateInWeekNine(t *testing.T) {
	games := season(10)
	picks := make([]pick.Pick, 0, 7)
	for w := 1; w <= 7; w++ {
		picks = append(picks, pick.Pick{ID: gameID(w), Week: w, GameID: gameID(w), TeamID: homeTeam(w)})
	}

	got := Replay(History{StartingLives: 2, FinalWeeks: weeksUpTo(10), Picks: picks, Games: games})

	assert.True(t, got.Eliminated)
	require.NotNil(t, got.EliminatedWeek)
	assert.Equal(t, 9, *got.EliminatedWeek)
	require.Len(t, got.Losses, 2)
	assert.Equal(t, LossMissingPick, got.Losses[0].Reason)
	assert.Equal(t, 8, got.Losses[0].Week)
	assert.Equal(t, 0, got.LivesRemaining)
}

func TestReplay_StrayPickAfterEliminationIgnored(t *testing.T) {
	games := season(5)
	picks := []pick.Pick{
		{ID: "p1", Week: 1, GameID: gameID(1), TeamID: awayTeam(1)},
		{ID: "p2", Week: 2, GameID: gameID(2), TeamID: awayTeam(2)},
		{ID: "p5", Week: 5, GameID: gameID(5), TeamID: awayTeam(5)},
	}

	got := Replay(History{StartingLives: 2, FinalWeeks: weeksUpTo(5), Picks: picks, Games: games})

	require.NotNil(t, got.EliminatedWeek)
	assert.Equal(t, 2, *got.EliminatedWeek)
	assert.Len(t, got.Losses, 2)
}

func TestReplay_PendingAndUnfinishedWeeks(t *testing.T) {
	games := season(2)
	games["g3"] = game.Game{ID: "g3", Week: 3, HomeTeamID: "KC", AwayTeamID: "LV"}

	got := Replay(History{
		StartingLives: 2,
		FinalWeeks:    []int{1, 2},
		Picks: []pick.Pick{
			{ID: "p1", Week: 1, GameID: gameID(1), TeamID: homeTeam(1)},
			{ID: "p3", Week: 3, GameID: "g3", TeamID: "KC"},
			{ID: "p4", Week: 4, GameID: "missing", TeamID: "KC"},
		},
		Games: games,
	})

	assert.Equal(t, 1, got.LivesRemaining, "week 2 missing pick only")
	assert.Equal(t, []int{3}, got.PendingWeeks)
	assert.Equal(t, []string{"p4"}, got.UnknownGamePicks)
}

func TestReplay_AdjustedStartAndFirstWeek(t *testing.T) {
	games := season(4)
	got := Replay(History{
		StartingLives: 3,
		FirstWeek:     3,
		FinalWeeks:    weeksUpTo(4),
		Games:         games,
	})
	assert.Equal(t, 1, got.LivesRemaining, "weeks 1-2 precede the league start")

	exhausted := Replay(History{StartingLives: 0, FirstWeek: 2})
	assert.True(t, exhausted.Eliminated)
	require.NotNil(t, exhausted.EliminatedWeek)
	assert.Equal(t, 2, *exhausted.EliminatedWeek)
}

func TestReplay_LatestResubmissionWins(t *testing.T) {
	games := season(1)
	base := time.Date(2025, 9, 4, 12, 0, 0, 0, time.UTC)
	got := Replay(History{
		StartingLives: 2,
		FinalWeeks:    []int{1},
		Picks: []pick.Pick{
			{ID: "p1", Week: 1, GameID: gameID(1), TeamID: awayTeam(1), UpdatedAt: base},
			{ID: "p1", Week: 1, GameID: gameID(1), TeamID: homeTeam(1), UpdatedAt: base.Add(time.Hour)},
		},
		Games: games,
	})
	assert.Equal(t, 2, got.LivesRemaining)
}
