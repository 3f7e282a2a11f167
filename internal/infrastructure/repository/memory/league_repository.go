package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/survivor-league/internal/domain/league"
)

// LeagueRepository keeps leagues in seed order. A later entry with a
// duplicate ID replaces the earlier one in place.
type LeagueRepository struct {
	mu      sync.RWMutex
	leagues []league.League
	index   map[string]int
}

func NewLeagueRepository(leagues []league.League) *LeagueRepository {
	r := &LeagueRepository{index: make(map[string]int, len(leagues))}
	for _, l := range leagues {
		if i, ok := r.index[l.ID]; ok {
			r.leagues[i] = l
			continue
		}
		r.index[l.ID] = len(r.leagues)
		r.leagues = append(r.leagues, l)
	}
	return r
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]league.League(nil), r.leagues...), nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[leagueID]
	if !ok {
		return league.League{}, false, nil
	}
	return r.leagues[i], true, nil
}
