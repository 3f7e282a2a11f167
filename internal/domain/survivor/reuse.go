package survivor

import (
	"strings"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
)

// UsedTeams maps each team picked strictly before beforeWeek to the first
// week it was used. Keys are upper-cased. history must belong to a single
// member and league.
func UsedTeams(history []pick.Pick, beforeWeek int) map[string]int {
	used := make(map[string]int, len(history))
	for _, p := range history {
		if p.Week >= beforeWeek || p.TeamID == "" {
			continue
		}
		team := strings.ToUpper(p.TeamID)
		if prev, ok := used[team]; !ok || p.Week < prev {
			used[team] = p.Week
		}
	}
	return used
}

// CheckTeamReuse rejects teamID for week when it appears in an earlier week.
// Picks in week itself or later never count, so a re-pick of the same week is
// allowed and earlier weeks are not re-validated.
func CheckTeamReuse(history []pick.Pick, week int, teamID string) error {
	if usedIn, ok := UsedTeams(history, week)[strings.ToUpper(teamID)]; ok {
		return &TeamAlreadyUsedError{TeamID: teamID, UsedInWeek: usedIn}
	}
	return nil
}

// CheckPickWindow rejects a submission once the chosen game has kicked off,
// and rejects replacing a pick whose game has already kicked off.
func CheckPickWindow(now time.Time, target game.Game, current *game.Game) error {
	if target.Started(now) || target.IsFinal {
		return &PickLockedError{GameID: target.ID, KickoffAt: target.KickoffAt}
	}
	if current != nil && current.ID != target.ID && (current.Started(now) || current.IsFinal) {
		return &PickLockedError{GameID: current.ID, KickoffAt: current.KickoffAt}
	}
	return nil
}

type PickLockedError struct {
	GameID    string
	KickoffAt time.Time
}

func (e *PickLockedError) Error() string {
	return ErrPickLocked.Error() + ": game=" + e.GameID + " kickoff=" + e.KickoffAt.UTC().Format(time.RFC3339)
}

func (e *PickLockedError) Is(target error) bool {
	return target == ErrPickLocked
}
