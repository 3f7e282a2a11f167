package game

import "context"

type Repository interface {
	ListBySeasonWeek(ctx context.Context, season, week int) ([]Game, error)
	ListBySeason(ctx context.Context, season int) ([]Game, error)
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
}
