package game

import (
	"fmt"
	"strings"
	"time"
)

// Game is one scheduled NFL game. Records are written by the schedule/score
// feed and are read-only to settlement.
type Game struct {
	ID         string
	Season     int
	Week       int
	HomeTeamID string
	AwayTeamID string
	KickoffAt  time.Time
	HomeScore  *int
	AwayScore  *int
	IsFinal    bool
}

// Validate checks that scores are present exactly when the game is final.
func (g Game) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	if g.Week <= 0 {
		return fmt.Errorf("game=%s week must be > 0", g.ID)
	}
	if g.HomeTeamID == "" || g.AwayTeamID == "" || strings.EqualFold(g.HomeTeamID, g.AwayTeamID) {
		return fmt.Errorf("game=%s has invalid teams home=%q away=%q", g.ID, g.HomeTeamID, g.AwayTeamID)
	}
	hasScores := g.HomeScore != nil && g.AwayScore != nil
	if g.IsFinal != hasScores {
		return fmt.Errorf("game=%s final=%t but scores present=%t", g.ID, g.IsFinal, hasScores)
	}
	return nil
}

// Team matches teamID against both sides ignoring case and returns the id as
// the schedule spells it.
func (g Game) Team(teamID string) (string, bool) {
	switch {
	case teamID == "":
		return "", false
	case strings.EqualFold(teamID, g.HomeTeamID):
		return g.HomeTeamID, true
	case strings.EqualFold(teamID, g.AwayTeamID):
		return g.AwayTeamID, true
	}
	return "", false
}

// Decided reports whether the game is final with both scores recorded.
func (g Game) Decided() bool {
	return g.IsFinal && g.HomeScore != nil && g.AwayScore != nil
}

// Winner returns the winning team id. ok is false while the game is undecided;
// a tie returns ("", true).
func (g Game) Winner() (teamID string, ok bool) {
	if !g.Decided() {
		return "", false
	}
	switch {
	case *g.HomeScore > *g.AwayScore:
		return g.HomeTeamID, true
	case *g.AwayScore > *g.HomeScore:
		return g.AwayTeamID, true
	default:
		return "", true
	}
}

// Started reports whether kickoff has passed at now.
func (g Game) Started(now time.Time) bool {
	return !g.KickoffAt.IsZero() && !now.Before(g.KickoffAt)
}

// WeekFinal reports whether a week's slate is fully settled: at least one
// game and every game final.
func WeekFinal(games []Game) bool {
	if len(games) == 0 {
		return false
	}
	for _, g := range games {
		if !g.IsFinal {
			return false
		}
	}
	return true
}
