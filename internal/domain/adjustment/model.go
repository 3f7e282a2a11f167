package adjustment

import "time"

// Adjustment is a manual change to a member's lives made by a league admin,
// e.g. a refunded life after a scoring dispute.
type Adjustment struct {
	ID        string
	LeagueID  string
	MemberID  string
	Week      int
	Delta     int
	Reason    string
	CreatedAt time.Time
}

// SumByMember folds a ledger into a net delta per member.
func SumByMember(items []Adjustment) map[string]int {
	out := make(map[string]int, len(items))
	for _, item := range items {
		out[item.MemberID] += item.Delta
	}
	return out
}
