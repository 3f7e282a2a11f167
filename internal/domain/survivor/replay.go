package survivor

import (
	"sort"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
)

type LossReason string

const (
	LossMissingPick   LossReason = "missing_pick"
	LossIncorrectPick LossReason = "incorrect_pick"
	LossTie           LossReason = "tie"
)

type Loss struct {
	Week   int        `json:"week"`
	Reason LossReason `json:"reason"`
	PickID string     `json:"pick_id,omitempty"`
	GameID string     `json:"game_id,omitempty"`
	TeamID string     `json:"team_id,omitempty"`
}

// History is everything needed to recompute one member's standing.
type History struct {
	StartingLives int
	FirstWeek     int
	// FinalWeeks lists weeks whose whole slate is final; only those can
	// charge a missing pick.
	FinalWeeks []int
	Picks      []pick.Pick
	Games      map[string]game.Game
}

// Outcome is the standing implied by a History.
type Outcome struct {
	StartingLives  int    `json:"starting_lives"`
	LivesRemaining int    `json:"lives_remaining"`
	Eliminated     bool   `json:"eliminated"`
	EliminatedWeek *int   `json:"eliminated_week,omitempty"`
	Losses         []Loss `json:"losses"`
	// PendingWeeks have a pick on a game that is not final yet.
	PendingWeeks []int `json:"pending_weeks,omitempty"`
	// UnknownGamePicks reference a game id missing from Games.
	UnknownGamePicks []string `json:"unknown_game_picks,omitempty"`
}

// Replay walks weeks in ascending order and charges one life per missing
// pick, wrong pick or tie until lives reach zero. Nothing is charged after
// elimination.
func Replay(h History) Outcome {
	firstWeek, out := startOutcome(h.StartingLives, h.FirstWeek)
	if out.Eliminated {
		return out
	}

	finalWeeks := make(map[int]bool, len(h.FinalWeeks))
	weekSet := make(map[int]struct{}, len(h.FinalWeeks)+len(h.Picks))
	for _, w := range h.FinalWeeks {
		if w < firstWeek {
			continue
		}
		finalWeeks[w] = true
		weekSet[w] = struct{}{}
	}

	picksByWeek := latestPickPerWeek(h.Picks, firstWeek)
	for w := range picksByWeek {
		weekSet[w] = struct{}{}
	}

	weeks := make([]int, 0, len(weekSet))
	for w := range weekSet {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	for _, week := range weeks {
		if out.Eliminated {
			break
		}

		p, hasPick := picksByWeek[week]
		if !hasPick {
			if finalWeeks[week] {
				out.charge(week, Loss{Week: week, Reason: LossMissingPick})
			}
			continue
		}

		g, ok := h.Games[p.GameID]
		if !ok {
			out.UnknownGamePicks = append(out.UnknownGamePicks, p.ID)
			continue
		}

		switch Resolve(g, p.TeamID) {
		case VerdictUndetermined:
			out.PendingWeeks = append(out.PendingWeeks, week)
		case VerdictIncorrect:
			reason := LossIncorrectPick
			if IsTie(g) {
				reason = LossTie
			}
			out.charge(week, Loss{Week: week, Reason: reason, PickID: p.ID, GameID: g.ID, TeamID: p.TeamID})
		}
	}

	return out
}

func startOutcome(startingLives, firstWeek int) (int, Outcome) {
	if firstWeek <= 0 {
		firstWeek = 1
	}
	out := Outcome{
		StartingLives:  startingLives,
		LivesRemaining: startingLives,
		Losses:         []Loss{},
	}
	if out.LivesRemaining <= 0 {
		// Adjustments removed every life before play started.
		out.LivesRemaining = 0
		out.Eliminated = true
		w := firstWeek
		out.EliminatedWeek = &w
	}
	return firstWeek, out
}

// latestPickPerWeek keeps the most recently updated pick of each week from
// firstWeek on.
func latestPickPerWeek(picks []pick.Pick, firstWeek int) map[int]pick.Pick {
	out := make(map[int]pick.Pick, len(picks))
	for _, p := range picks {
		if p.Week < firstWeek {
			continue
		}
		if prev, ok := out[p.Week]; ok && !p.UpdatedAt.After(prev.UpdatedAt) {
			continue
		}
		out[p.Week] = p
	}
	return out
}

func (o *Outcome) charge(week int, loss Loss) {
	o.Losses = append(o.Losses, loss)
	o.LivesRemaining--
	if o.LivesRemaining <= 0 {
		o.LivesRemaining = 0
		o.Eliminated = true
		w := week
		o.EliminatedWeek = &w
	}
}
