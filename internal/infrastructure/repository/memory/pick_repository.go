package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/pick"
)

type pickKey struct {
	leagueID string
	memberID string
	week     int
}

type PickRepository struct {
	mu     sync.RWMutex
	byID   map[string]pick.Pick
	bySlot map[pickKey]string
	now    func() time.Time
}

func NewPickRepository(picks []pick.Pick) *PickRepository {
	r := &PickRepository{
		byID:   make(map[string]pick.Pick, len(picks)),
		bySlot: make(map[pickKey]string, len(picks)),
		now:    time.Now,
	}
	for _, p := range picks {
		r.byID[p.ID] = clonePick(p)
		r.bySlot[slotOf(p)] = p.ID
	}
	return r
}

func (r *PickRepository) ListByLeagueWeek(_ context.Context, leagueID string, week int) ([]pick.Pick, error) {
	return r.filter(func(p pick.Pick) bool { return p.LeagueID == leagueID && p.Week == week }), nil
}

func (r *PickRepository) ListByLeague(_ context.Context, leagueID string) ([]pick.Pick, error) {
	return r.filter(func(p pick.Pick) bool { return p.LeagueID == leagueID }), nil
}

func (r *PickRepository) ListByMember(_ context.Context, leagueID, memberID string) ([]pick.Pick, error) {
	return r.filter(func(p pick.Pick) bool { return p.LeagueID == leagueID && p.MemberID == memberID }), nil
}

func (r *PickRepository) GetByMemberWeek(_ context.Context, leagueID, memberID string, week int) (pick.Pick, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySlot[pickKey{leagueID: leagueID, memberID: memberID, week: week}]
	if !ok {
		return pick.Pick{}, false, nil
	}
	return clonePick(r.byID[id]), true, nil
}

// Upsert keeps one record per (league, member, week); a resubmission keeps
// the stored id and submission time.
func (r *PickRepository) Upsert(_ context.Context, p pick.Pick) (pick.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	slot := slotOf(p)
	if existingID, ok := r.bySlot[slot]; ok {
		existing := r.byID[existingID]
		p.ID = existing.ID
		p.SubmittedAt = existing.SubmittedAt
	} else if p.ID == "" {
		return pick.Pick{}, fmt.Errorf("pick id is required")
	}
	if p.SubmittedAt.IsZero() {
		p.SubmittedAt = now
	}
	p.UpdatedAt = now

	r.byID[p.ID] = clonePick(p)
	r.bySlot[slot] = p.ID
	return clonePick(p), nil
}

func (r *PickRepository) SetCorrectness(_ context.Context, pickID string, expected *bool, next *bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[pickID]
	if !ok {
		return false, fmt.Errorf("pick=%s not found", pickID)
	}
	if !pick.SameVerdict(p.IsCorrect, expected) {
		return false, nil
	}
	p.IsCorrect = copyBool(next)
	p.UpdatedAt = r.now().UTC()
	r.byID[pickID] = p
	return true, nil
}

func (r *PickRepository) filter(keep func(pick.Pick) bool) []pick.Pick {
	r.mu.RLock()
	out := make([]pick.Pick, 0)
	for _, p := range r.byID {
		if keep(p) {
			out = append(out, clonePick(p))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

func slotOf(p pick.Pick) pickKey {
	return pickKey{leagueID: p.LeagueID, memberID: p.MemberID, week: p.Week}
}

func clonePick(p pick.Pick) pick.Pick {
	out := p
	out.IsCorrect = copyBool(p.IsCorrect)
	return out
}

func copyBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	b := *v
	return &b
}
