package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/survivor-league/internal/domain/penalty"
)

type PenaltyRepository struct {
	mu    sync.Mutex
	items map[pickKey]penalty.Penalty
}

func NewPenaltyRepository() *PenaltyRepository {
	return &PenaltyRepository{items: make(map[pickKey]penalty.Penalty)}
}

func (r *PenaltyRepository) Claim(_ context.Context, p penalty.Penalty) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pickKey{leagueID: p.LeagueID, memberID: p.MemberID, week: p.Week}
	if _, exists := r.items[key]; exists {
		return false, nil
	}
	r.items[key] = p
	return true, nil
}

func (r *PenaltyRepository) Release(_ context.Context, leagueID, memberID string, week int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, pickKey{leagueID: leagueID, memberID: memberID, week: week})
	return nil
}

func (r *PenaltyRepository) ListByMember(_ context.Context, leagueID, memberID string) ([]penalty.Penalty, error) {
	r.mu.Lock()
	out := make([]penalty.Penalty, 0)
	for key, p := range r.items {
		if key.leagueID == leagueID && key.memberID == memberID {
			out = append(out, p)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out, nil
}
