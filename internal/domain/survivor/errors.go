package survivor

import (
	"errors"
	"fmt"
)

var (
	ErrGameNotFinal    = errors.New("game is not final")
	ErrGameMismatch    = errors.New("pick does not reference game")
	ErrTeamAlreadyUsed = errors.New("team already used")
	ErrTeamNotInGame   = errors.New("team is not playing in game")
	ErrPickLocked      = errors.New("pick is locked")
)

// TeamAlreadyUsedError names the reused team and the earlier week it was
// picked in. errors.Is(err, ErrTeamAlreadyUsed) matches it.
type TeamAlreadyUsedError struct {
	TeamID     string
	UsedInWeek int
}

func (e *TeamAlreadyUsedError) Error() string {
	return fmt.Sprintf("%s: team=%s used_in_week=%d", ErrTeamAlreadyUsed, e.TeamID, e.UsedInWeek)
}

func (e *TeamAlreadyUsedError) Is(target error) bool {
	return target == ErrTeamAlreadyUsed
}
