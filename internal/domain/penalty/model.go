package penalty

import "time"

// Penalty marks that the missing-pick life was charged to a member for one
// league week. At most one exists per (league, member, week).
type Penalty struct {
	LeagueID  string
	MemberID  string
	Week      int
	AppliedAt time.Time
}
