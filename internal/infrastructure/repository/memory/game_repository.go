package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
)

type GameRepository struct {
	mu    sync.RWMutex
	games map[string]game.Game
}

func NewGameRepository(games []game.Game) *GameRepository {
	r := &GameRepository{games: make(map[string]game.Game, len(games))}
	for _, g := range games {
		r.games[g.ID] = cloneGame(g)
	}
	return r
}

// Put inserts or replaces a game, standing in for the score feed.
func (r *GameRepository) Put(g game.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.ID] = cloneGame(g)
}

func (r *GameRepository) ListBySeasonWeek(_ context.Context, season, week int) ([]game.Game, error) {
	return r.filter(func(g game.Game) bool { return g.Season == season && g.Week == week }), nil
}

func (r *GameRepository) ListBySeason(_ context.Context, season int) ([]game.Game, error) {
	return r.filter(func(g game.Game) bool { return g.Season == season }), nil
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[gameID]
	if !ok {
		return game.Game{}, false, nil
	}
	return cloneGame(g), true, nil
}

func (r *GameRepository) filter(keep func(game.Game) bool) []game.Game {
	r.mu.RLock()
	out := make([]game.Game, 0)
	for _, g := range r.games {
		if keep(g) {
			out = append(out, cloneGame(g))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneGame(g game.Game) game.Game {
	out := g
	if g.HomeScore != nil {
		v := *g.HomeScore
		out.HomeScore = &v
	}
	if g.AwayScore != nil {
		v := *g.AwayScore
		out.AwayScore = &v
	}
	return out
}
