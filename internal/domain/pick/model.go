package pick

import "time"

// Pick is a member's single team selection for one league week. Resubmitting
// in the same week updates the same record.
type Pick struct {
	ID          string
	MemberID    string
	LeagueID    string
	Week        int
	GameID      string
	TeamID      string
	IsCorrect   *bool
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// Settled reports whether settlement has stored a verdict.
func (p Pick) Settled() bool {
	return p.IsCorrect != nil
}

// Verdict returns a copy of the stored correctness flag.
func (p Pick) Verdict() *bool {
	if p.IsCorrect == nil {
		return nil
	}
	v := *p.IsCorrect
	return &v
}

// SameVerdict compares two nullable correctness flags.
func SameVerdict(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func BoolPtr(v bool) *bool {
	return &v
}
