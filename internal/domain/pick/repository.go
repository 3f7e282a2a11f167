package pick

import "context"

type Repository interface {
	ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]Pick, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Pick, error)
	ListByMember(ctx context.Context, leagueID, memberID string) ([]Pick, error)
	GetByMemberWeek(ctx context.Context, leagueID, memberID string, week int) (Pick, bool, error)
	Upsert(ctx context.Context, p Pick) (Pick, error)
	// SetCorrectness stores next only if the stored value still equals
	// expected (nil meaning unknown). swapped is false when another writer
	// got there first.
	SetCorrectness(ctx context.Context, pickID string, expected *bool, next *bool) (swapped bool, err error)
}
