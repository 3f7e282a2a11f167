package survivor

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
)

type Verdict int8

const (
	VerdictUndetermined Verdict = iota
	VerdictCorrect
	VerdictIncorrect
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	default:
		return "undetermined"
	}
}

// Bool returns the verdict as a correctness value; ok is false while the
// game is undecided.
func (v Verdict) Bool() (value bool, ok bool) {
	switch v {
	case VerdictCorrect:
		return true, true
	case VerdictIncorrect:
		return false, true
	default:
		return false, false
	}
}

// Correctness maps the verdict onto a pick's nullable is_correct column.
func (v Verdict) Correctness() *bool {
	switch v {
	case VerdictCorrect:
		return pick.BoolPtr(true)
	case VerdictIncorrect:
		return pick.BoolPtr(false)
	default:
		return nil
	}
}

// Resolve decides a pick of teamID on g. Only an outright win is correct;
// a tie loses for both sides.
func Resolve(g game.Game, teamID string) Verdict {
	winner, decided := g.Winner()
	if !decided {
		return VerdictUndetermined
	}
	if winner != "" && strings.EqualFold(winner, teamID) {
		return VerdictCorrect
	}
	return VerdictIncorrect
}

// ResolvePick is Resolve with the pick/game pairing checked.
func ResolvePick(g game.Game, p pick.Pick) (Verdict, error) {
	if p.GameID != g.ID {
		return VerdictUndetermined, fmt.Errorf("%w: pick=%s game=%s", ErrGameMismatch, p.ID, g.ID)
	}
	verdict := Resolve(g, p.TeamID)
	if verdict == VerdictUndetermined {
		return verdict, fmt.Errorf("%w: game=%s", ErrGameNotFinal, g.ID)
	}
	return verdict, nil
}

// IsTie reports whether g ended level.
func IsTie(g game.Game) bool {
	winner, decided := g.Winner()
	return decided && winner == ""
}
