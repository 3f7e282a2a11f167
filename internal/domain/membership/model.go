package membership

import (
	"fmt"
	"time"
)

const DefaultStartingLives = 2

// Membership is a member's standing in one league.
type Membership struct {
	MemberID       string
	LeagueID       string
	LivesRemaining int
	Eliminated     bool
	EliminatedWeek *int
	UpdatedAt      time.Time
}

// Validate enforces lives >= 0, eliminated iff lives == 0, and an
// elimination week iff eliminated.
func (m Membership) Validate() error {
	if m.LivesRemaining < 0 {
		return fmt.Errorf("member=%s lives_remaining=%d must be >= 0", m.MemberID, m.LivesRemaining)
	}
	if m.Eliminated != (m.LivesRemaining == 0) {
		return fmt.Errorf("member=%s eliminated=%t inconsistent with lives_remaining=%d", m.MemberID, m.Eliminated, m.LivesRemaining)
	}
	if m.Eliminated != (m.EliminatedWeek != nil) {
		return fmt.Errorf("member=%s eliminated=%t inconsistent with eliminated_week", m.MemberID, m.Eliminated)
	}
	return nil
}

// Alive reports whether the member can still lose lives.
func (m Membership) Alive() bool {
	return !m.Eliminated && m.LivesRemaining > 0
}

// WithState returns m carrying another membership's lives and elimination fields.
func (m Membership) WithState(lives int, eliminated bool, eliminatedWeek *int) Membership {
	next := m
	next.LivesRemaining = lives
	next.Eliminated = eliminated
	next.EliminatedWeek = nil
	if eliminatedWeek != nil {
		w := *eliminatedWeek
		next.EliminatedWeek = &w
	}
	return next
}

// SameState compares the fields settlement and the auditor own.
func SameState(a, b Membership) bool {
	if a.LivesRemaining != b.LivesRemaining || a.Eliminated != b.Eliminated {
		return false
	}
	if a.EliminatedWeek == nil || b.EliminatedWeek == nil {
		return a.EliminatedWeek == nil && b.EliminatedWeek == nil
	}
	return *a.EliminatedWeek == *b.EliminatedWeek
}
