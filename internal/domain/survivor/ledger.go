package survivor

import (
	"sort"

	"github.com/riskibarqy/survivor-league/internal/domain/pick"
)

// Ledger is what settlement has recorded for one member so far: the stored
// verdict on each pick and the weeks holding a missing-pick penalty marker.
type Ledger struct {
	StartingLives int
	FirstWeek     int
	Picks         []pick.Pick
	PenaltyWeeks  []int
}

// Settled folds a Ledger into a standing the same way Replay folds game
// results: weeks ascend, each stored loss or penalty costs a life, and
// nothing is charged after elimination. Picks without a stored verdict are
// pending. A penalty marker is ignored in a week that has a pick.
func Settled(l Ledger) Outcome {
	firstWeek, out := startOutcome(l.StartingLives, l.FirstWeek)
	if out.Eliminated {
		return out
	}

	picksByWeek := latestPickPerWeek(l.Picks, firstWeek)
	weekSet := make(map[int]struct{}, len(picksByWeek)+len(l.PenaltyWeeks))
	for w := range picksByWeek {
		weekSet[w] = struct{}{}
	}
	penalties := make(map[int]bool, len(l.PenaltyWeeks))
	for _, w := range l.PenaltyWeeks {
		if w < firstWeek {
			continue
		}
		penalties[w] = true
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
			if penalties[week] {
				out.charge(week, Loss{Week: week, Reason: LossMissingPick})
			}
			continue
		}

		verdict := p.Verdict()
		switch {
		case verdict == nil:
			out.PendingWeeks = append(out.PendingWeeks, week)
		case !*verdict:
			out.charge(week, Loss{Week: week, Reason: LossIncorrectPick, PickID: p.ID, GameID: p.GameID, TeamID: p.TeamID})
		}
	}

	return out
}
