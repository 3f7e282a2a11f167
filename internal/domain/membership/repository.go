package membership

import "context"

type Repository interface {
	Get(ctx context.Context, leagueID, memberID string) (Membership, bool, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Membership, error)
	// CompareAndSwap writes next only when the stored lives, eliminated flag
	// and elimination week still equal expected.
	CompareAndSwap(ctx context.Context, expected, next Membership) (swapped bool, err error)
}
