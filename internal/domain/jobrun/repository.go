package jobrun

import "context"

type Repository interface {
	UpsertEvent(ctx context.Context, event Event) error
	ListByLeague(ctx context.Context, leagueID string, limit int) ([]Event, error)
}
