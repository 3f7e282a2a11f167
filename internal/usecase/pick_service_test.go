package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/league"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
	"github.com/riskibarqy/survivor-league/internal/domain/survivor"
	"github.com/riskibarqy/survivor-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sequenceIDs struct{ next int }

func (g *sequenceIDs) NewID() (string, error) {
	g.next++
	return "pick_" + string(rune('a'+g.next-1)), nil
}

func newPickServiceFixture(t *testing.T, lg league.League, games []game.Game, picks []pick.Pick, members []membership.Membership, now time.Time) (*PickService, *memory.PickRepository) {
	t.Helper()

	pickRepo := memory.NewPickRepository(picks)
	svc := NewPickService(
		memory.NewLeagueRepository([]league.League{lg}),
		memory.NewGameRepository(games),
		pickRepo,
		memory.NewMembershipRepository(members),
		&sequenceIDs{},
		logging.NewNop(),
	)
	svc.now = func() time.Time { return now }
	return svc, pickRepo
}

// beforeWeek is the Saturday before a week's kickoff.
func beforeWeek(week int) time.Time {
	return testKickoff.Add(time.Duration(week-1)*7*24*time.Hour - 24*time.Hour)
}

func TestPickService_ValidatePickSubmission(t *testing.T) {
	t.Parallel()

	history := []pick.Pick{
		newPick("ana", 1, "w1-kc-bal", "KC"),
		newPick("ana", 3, "w3-buf-mia", "BUF"),
	}
	svc, _ := newPickServiceFixture(t, testLeague(), nil, history, []membership.Membership{alive("ana", 2)}, beforeWeek(5))
	ctx := context.Background()

	err := svc.ValidatePickSubmission(ctx, PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 5, TeamID: "kc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, survivor.ErrTeamAlreadyUsed))
	var reused *survivor.TeamAlreadyUsedError
	require.True(t, errors.As(err, &reused))
	assert.Equal(t, 1, reused.UsedInWeek)

	// BUF was picked in week 3, which does not bind week 2.
	assert.NoError(t, svc.ValidatePickSubmission(ctx, PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 2, TeamID: "BUF"}))
	// Re-picking the same team in the same week is allowed.
	assert.NoError(t, svc.ValidatePickSubmission(ctx, PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 1, TeamID: "KC"}))

	err = svc.ValidatePickSubmission(ctx, PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 0, TeamID: "KC"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPickService_SubmitPick_StoresAndResubmits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	games := []game.Game{
		scheduledGame("w2-kc-cin", 2, "KC", "CIN"),
		scheduledGame("w2-buf-mia", 2, "BUF", "MIA"),
	}
	svc, pickRepo := newPickServiceFixture(t, testLeague(), games, nil, []membership.Membership{alive("ana", 2)}, beforeWeek(2))

	first, err := svc.SubmitPick(ctx, PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 2, GameID: "w2-kc-cin", TeamID: " kc "})
	require.NoError(t, err)
	assert.Equal(t, "pick_a", first.ID)
	assert.Equal(t, "KC", first.TeamID)
	assert.Nil(t, first.IsCorrect)

	second, err := svc.SubmitPick(ctx, PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 2, GameID: "w2-buf-mia", TeamID: "MIA"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "a resubmission replaces the week's pick in place")
	assert.Equal(t, "w2-buf-mia", second.GameID)

	stored, err := pickRepo.ListByMember(ctx, testLeagueID, "ana")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "MIA", stored[0].TeamID)
}

func TestPickService_SubmitPick_StoresScheduleSpelling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	games := []game.Game{scheduledGame("w2-jax-ten", 2, "Jax", "TEN")}
	svc, _ := newPickServiceFixture(t, testLeague(), games, nil, []membership.Membership{alive("ana", 2)}, beforeWeek(2))

	saved, err := svc.SubmitPick(ctx, PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 2, GameID: "w2-jax-ten", TeamID: "JAX"})
	require.NoError(t, err)
	assert.Equal(t, "Jax", saved.TeamID)

	final := finalGame("w2-jax-ten", 2, "Jax", 24, "TEN", 10)
	assert.Equal(t, survivor.VerdictCorrect, survivor.Resolve(final, saved.TeamID))
}

func TestPickService_SubmitPick_Rejections(t *testing.T) {
	t.Parallel()

	lockedAt := testKickoff.Add(7*24*time.Hour + time.Minute)
	games := []game.Game{
		finalGame("w1-kc-bal", 1, "KC", 27, "BAL", 20),
		scheduledGame("w2-kc-cin", 2, "KC", "CIN"),
		scheduledGame("w2-buf-mia", 2, "BUF", "MIA"),
		scheduledGame("w5-kc-lv", 5, "KC", "LV"),
	}
	members := []membership.Membership{
		alive("ana", 2),
		{MemberID: "out", LeagueID: testLeagueID, Eliminated: true, EliminatedWeek: weekPtr(1)},
	}
	history := []pick.Pick{
		newPick("ana", 1, "w1-kc-bal", "KC"),
		newPick("ana", 2, "w2-buf-mia", "BUF"),
	}
	lateStart := testLeague()
	lateStart.StartWeek = 3

	cases := []struct {
		name   string
		league league.League
		now    time.Time
		input  PickSubmission
		want   error
	}{
		{
			name:   "team reused from earlier week",
			league: testLeague(),
			now:    beforeWeek(5),
			input:  PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 5, GameID: "w5-kc-lv", TeamID: "KC"},
			want:   survivor.ErrTeamAlreadyUsed,
		},
		{
			name:   "target game kicked off",
			league: testLeague(),
			now:    lockedAt,
			input:  PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 2, GameID: "w2-kc-cin", TeamID: "CIN"},
			want:   survivor.ErrPickLocked,
		},
		{
			name:   "eliminated member",
			league: testLeague(),
			now:    beforeWeek(5),
			input:  PickSubmission{LeagueID: testLeagueID, MemberID: "out", Week: 5, GameID: "w5-kc-lv", TeamID: "LV"},
			want:   ErrMemberEliminated,
		},
		{
			name:   "unknown member",
			league: testLeague(),
			now:    beforeWeek(5),
			input:  PickSubmission{LeagueID: testLeagueID, MemberID: "nobody", Week: 5, GameID: "w5-kc-lv", TeamID: "LV"},
			want:   ErrMembershipNotFound,
		},
		{
			name:   "team not in game",
			league: testLeague(),
			now:    beforeWeek(5),
			input:  PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 5, GameID: "w5-kc-lv", TeamID: "DEN"},
			want:   survivor.ErrTeamNotInGame,
		},
		{
			name:   "game from another week",
			league: testLeague(),
			now:    beforeWeek(5),
			input:  PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 4, GameID: "w5-kc-lv", TeamID: "LV"},
			want:   ErrNotFound,
		},
		{
			name:   "week before league start",
			league: lateStart,
			now:    beforeWeek(2),
			input:  PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 2, GameID: "w2-kc-cin", TeamID: "CIN"},
			want:   ErrInvalidInput,
		},
		{
			name:   "missing game id",
			league: testLeague(),
			now:    beforeWeek(5),
			input:  PickSubmission{LeagueID: testLeagueID, MemberID: "ana", Week: 5, TeamID: "LV"},
			want:   ErrInvalidInput,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newPickServiceFixture(t, tc.league, games, history, members, tc.now)
			_, err := svc.SubmitPick(context.Background(), tc.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestPickService_SubmitPick_CannotLeaveStartedGame(t *testing.T) {
	t.Parallel()

	games := []game.Game{
		scheduledGame("w2-kc-cin", 2, "KC", "CIN"),
		{
			ID: "w2-buf-mia-late", Season: testSeason, Week: 2, HomeTeamID: "BUF", AwayTeamID: "MIA",
			KickoffAt: testKickoff.Add(8 * 24 * time.Hour),
		},
	}
	history := []pick.Pick{newPick("ana", 2, "w2-kc-cin", "KC")}
	now := testKickoff.Add(7*24*time.Hour + time.Hour)
	svc, _ := newPickServiceFixture(t, testLeague(), games, history, []membership.Membership{alive("ana", 2)}, now)

	_, err := svc.SubmitPick(context.Background(), PickSubmission{
		LeagueID: testLeagueID, MemberID: "ana", Week: 2, GameID: "w2-buf-mia-late", TeamID: "BUF",
	})
	var locked *survivor.PickLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, "w2-kc-cin", locked.GameID)
}
