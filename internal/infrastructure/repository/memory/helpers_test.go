package memory

import "github.com/riskibarqy/survivor-league/internal/domain/penalty"

func penaltyFor(memberID string, week int) penalty.Penalty {
	return penalty.Penalty{LeagueID: "l1", MemberID: memberID, Week: week}
}
