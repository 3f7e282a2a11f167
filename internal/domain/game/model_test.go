package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func score(v int) *int { return &v }

func TestGame_Winner(t *testing.T) {
	tests := []struct {
		name       string
		game       Game
		wantTeam   string
		wantDecide bool
	}{
		{name: "home wins", game: Game{HomeTeamID: "KC", AwayTeamID: "BUF", HomeScore: score(27), AwayScore: score(20), IsFinal: true}, wantTeam: "KC", wantDecide: true},
		{name: "away wins", game: Game{HomeTeamID: "KC", AwayTeamID: "BUF", HomeScore: score(17), AwayScore: score(24), IsFinal: true}, wantTeam: "BUF", wantDecide: true},
		{name: "tie", game: Game{HomeTeamID: "KC", AwayTeamID: "BUF", HomeScore: score(20), AwayScore: score(20), IsFinal: true}, wantTeam: "", wantDecide: true},
		{name: "in progress", game: Game{HomeTeamID: "KC", AwayTeamID: "BUF", HomeScore: score(7), AwayScore: score(3)}, wantDecide: false},
		{name: "final without scores", game: Game{HomeTeamID: "KC", AwayTeamID: "BUF", IsFinal: true}, wantDecide: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			team, ok := tc.game.Winner()
			assert.Equal(t, tc.wantDecide, ok)
			assert.Equal(t, tc.wantTeam, team)
		})
	}
}

func TestGame_Team(t *testing.T) {
	g := Game{HomeTeamID: "Jax", AwayTeamID: "TEN"}

	team, ok := g.Team("JAX")
	assert.True(t, ok)
	assert.Equal(t, "Jax", team, "returns the schedule spelling")

	team, ok = g.Team("ten")
	assert.True(t, ok)
	assert.Equal(t, "TEN", team)

	_, ok = g.Team("HOU")
	assert.False(t, ok)
	_, ok = g.Team("")
	assert.False(t, ok)
}

func TestGame_Validate(t *testing.T) {
	valid := Game{ID: "g1", Season: 2025, Week: 1, HomeTeamID: "KC", AwayTeamID: "BUF", HomeScore: score(1), AwayScore: score(0), IsFinal: true}
	assert.NoError(t, valid.Validate())

	notFinalWithScores := valid
	notFinalWithScores.IsFinal = false
	assert.Error(t, notFinalWithScores.Validate())

	sameTeams := valid
	sameTeams.AwayTeamID = "KC"
	assert.Error(t, sameTeams.Validate())
}

func TestWeekFinalAndStarted(t *testing.T) {
	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	g := Game{KickoffAt: kickoff}
	assert.False(t, g.Started(kickoff.Add(-time.Minute)))
	assert.True(t, g.Started(kickoff))

	assert.False(t, WeekFinal(nil))
	assert.False(t, WeekFinal([]Game{{IsFinal: true}, {IsFinal: false}}))
	assert.True(t, WeekFinal([]Game{{IsFinal: true}, {IsFinal: true}}))
}
