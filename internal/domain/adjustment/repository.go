package adjustment

import "context"

type Repository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Adjustment, error)
	Create(ctx context.Context, item Adjustment) error
}
