package memory

import (
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/league"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
)

const (
	LeagueIDMain     = "nfl-2025-main"
	LeagueIDHardcore = "nfl-2025-hardcore"
	SeedSeason       = 2025
)

// Seed data backs STORAGE_DRIVER=memory for local runs.

func SeedLeagues() []league.League {
	return []league.League{
		{ID: LeagueIDMain, Name: "Office Survivor 2025", Season: SeedSeason, StartingLives: 2, StartWeek: 1},
		{ID: LeagueIDHardcore, Name: "One Life 2025", Season: SeedSeason, StartingLives: 1, StartWeek: 2},
	}
}

func SeedGames() []game.Game {
	week1 := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	week2 := week1.Add(7 * 24 * time.Hour)
	return []game.Game{
		seedFinal("2025-w1-bal-kc", 1, "KC", 27, "BAL", 20, week1),
		seedFinal("2025-w1-phi-gb", 1, "PHI", 34, "GB", 29, week1),
		seedFinal("2025-w1-pit-atl", 1, "ATL", 10, "PIT", 18, week1),
		{ID: "2025-w2-kc-cin", Season: SeedSeason, Week: 2, HomeTeamID: "KC", AwayTeamID: "CIN", KickoffAt: week2},
		{ID: "2025-w2-buf-mia", Season: SeedSeason, Week: 2, HomeTeamID: "BUF", AwayTeamID: "MIA", KickoffAt: week2},
	}
}

func SeedMemberships() []membership.Membership {
	return []membership.Membership{
		{MemberID: "member-ana", LeagueID: LeagueIDMain, LivesRemaining: 2},
		{MemberID: "member-ben", LeagueID: LeagueIDMain, LivesRemaining: 2},
		{MemberID: "member-cai", LeagueID: LeagueIDMain, LivesRemaining: 2},
		{MemberID: "member-ana", LeagueID: LeagueIDHardcore, LivesRemaining: 1},
	}
}

func SeedPicks() []pick.Pick {
	submitted := time.Date(2025, 9, 5, 12, 0, 0, 0, time.UTC)
	return []pick.Pick{
		{ID: "pick-ana-1", MemberID: "member-ana", LeagueID: LeagueIDMain, Week: 1, GameID: "2025-w1-bal-kc", TeamID: "KC", SubmittedAt: submitted, UpdatedAt: submitted},
		{ID: "pick-ben-1", MemberID: "member-ben", LeagueID: LeagueIDMain, Week: 1, GameID: "2025-w1-pit-atl", TeamID: "ATL", SubmittedAt: submitted, UpdatedAt: submitted},
	}
}

func seedFinal(id string, week int, home string, homeScore int, away string, awayScore int, kickoff time.Time) game.Game {
	return game.Game{
		ID:         id,
		Season:     SeedSeason,
		Week:       week,
		HomeTeamID: home,
		AwayTeamID: away,
		KickoffAt:  kickoff,
		HomeScore:  &homeScore,
		AwayScore:  &awayScore,
		IsFinal:    true,
	}
}
