package cache

import (
	"context"
	"strconv"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/league"
	basecache "github.com/riskibarqy/survivor-league/internal/platform/cache"
)

type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	items, err := basecache.Load(ctx, r.cache, "league:list", func(ctx context.Context) ([]league.League, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]league.League(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]league.League(nil), items...), nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, "league:id:"+leagueID, func(ctx context.Context) (cachedLeagueByID, error) {
		item, exists, err := r.next.GetByID(ctx, leagueID)
		if err != nil {
			return cachedLeagueByID{}, err
		}
		return cachedLeagueByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}
	return cached.value, cached.exists, nil
}

type cachedLeagueByID struct {
	value  league.League
	exists bool
}

// GameRepository caches only settled data: a week slate once every game in
// it is final, and single games once final. Scores still in flux always go
// to the backing store.
type GameRepository struct {
	next  game.Repository
	cache *basecache.Store
}

func NewGameRepository(next game.Repository, cache *basecache.Store) *GameRepository {
	return &GameRepository{next: next, cache: cache}
}

func (r *GameRepository) ListBySeasonWeek(ctx context.Context, season, week int) ([]game.Game, error) {
	key := "game:week:" + strconv.Itoa(season) + ":" + strconv.Itoa(week)
	if v, ok := r.cache.Get(ctx, key); ok {
		if items, ok := v.([]game.Game); ok {
			return append([]game.Game(nil), items...), nil
		}
	}

	items, err := r.next.ListBySeasonWeek(ctx, season, week)
	if err != nil {
		return nil, err
	}
	if game.WeekFinal(items) {
		r.cache.Set(ctx, key, append([]game.Game(nil), items...))
	}
	return items, nil
}

// ListBySeason is not cached; the season slate is rarely all final.
func (r *GameRepository) ListBySeason(ctx context.Context, season int) ([]game.Game, error) {
	return r.next.ListBySeason(ctx, season)
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	key := "game:id:" + gameID
	if v, ok := r.cache.Get(ctx, key); ok {
		if item, ok := v.(game.Game); ok {
			return item, true, nil
		}
	}

	item, exists, err := r.next.GetByID(ctx, gameID)
	if err != nil || !exists {
		return item, exists, err
	}
	if item.IsFinal {
		r.cache.Set(ctx, key, item)
	}
	return item, true, nil
}
