package league

import "fmt"

// DefaultStartingLives applies to leagues that do not configure their own.
const DefaultStartingLives = 2

// League is one survivor pool running over an NFL season.
type League struct {
	ID            string
	Name          string
	Season        int
	StartingLives int
	StartWeek     int
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.Season <= 0 {
		return fmt.Errorf("league=%s season must be > 0", l.ID)
	}
	if l.StartingLives < 0 {
		return fmt.Errorf("league=%s starting lives must be >= 0", l.ID)
	}
	return nil
}

// Lives returns the configured starting lives, falling back to fallback and
// then to DefaultStartingLives.
func (l League) Lives(fallback int) int {
	if l.StartingLives > 0 {
		return l.StartingLives
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultStartingLives
}

// FirstWeek is the first week that counts toward the pool.
func (l League) FirstWeek() int {
	if l.StartWeek > 0 {
		return l.StartWeek
	}
	return 1
}
