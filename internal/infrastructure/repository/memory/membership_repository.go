package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/membership"
)

type membershipKey struct {
	leagueID string
	memberID string
}

type MembershipRepository struct {
	mu    sync.RWMutex
	items map[membershipKey]membership.Membership
	now   func() time.Time
}

func NewMembershipRepository(items []membership.Membership) *MembershipRepository {
	r := &MembershipRepository{
		items: make(map[membershipKey]membership.Membership, len(items)),
		now:   time.Now,
	}
	for _, m := range items {
		r.items[membershipKey{leagueID: m.LeagueID, memberID: m.MemberID}] = cloneMembership(m)
	}
	return r
}

func (r *MembershipRepository) Get(_ context.Context, leagueID, memberID string) (membership.Membership, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[membershipKey{leagueID: leagueID, memberID: memberID}]
	if !ok {
		return membership.Membership{}, false, nil
	}
	return cloneMembership(m), true, nil
}

func (r *MembershipRepository) ListByLeague(_ context.Context, leagueID string) ([]membership.Membership, error) {
	r.mu.RLock()
	out := make([]membership.Membership, 0)
	for key, m := range r.items {
		if key.leagueID == leagueID {
			out = append(out, cloneMembership(m))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (r *MembershipRepository) CompareAndSwap(_ context.Context, expected, next membership.Membership) (bool, error) {
	if err := next.Validate(); err != nil {
		return false, fmt.Errorf("reject membership write: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := membershipKey{leagueID: expected.LeagueID, memberID: expected.MemberID}
	current, ok := r.items[key]
	if !ok {
		return false, fmt.Errorf("membership league=%s member=%s not found", expected.LeagueID, expected.MemberID)
	}
	if !membership.SameState(current, expected) {
		return false, nil
	}

	next.LeagueID = current.LeagueID
	next.MemberID = current.MemberID
	next.UpdatedAt = r.now().UTC()
	r.items[key] = cloneMembership(next)
	return true, nil
}

func cloneMembership(m membership.Membership) membership.Membership {
	return m.WithState(m.LivesRemaining, m.Eliminated, m.EliminatedWeek)
}
