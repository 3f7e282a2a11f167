package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/survivor-league/internal/domain/league"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
)

type Standing struct {
	Rank           int    `json:"rank"`
	MemberID       string `json:"member_id"`
	LivesRemaining int    `json:"lives_remaining"`
	Eliminated     bool   `json:"eliminated"`
	EliminatedWeek *int   `json:"eliminated_week,omitempty"`
}

type LeagueService struct {
	leagueRepo     league.Repository
	membershipRepo membership.Repository
}

func NewLeagueService(leagueRepo league.Repository, membershipRepo membership.Repository) *LeagueService {
	return &LeagueService{
		leagueRepo:     leagueRepo,
		membershipRepo: membershipRepo,
	}
}

func (s *LeagueService) ListLeagues(ctx context.Context) ([]league.League, error) {
	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	return leagues, nil
}

// Standings orders alive members first by lives, then eliminated members by
// how late they went out.
func (s *LeagueService) Standings(ctx context.Context, leagueID string) ([]Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Standings")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	_, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	items, err := s.membershipRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Eliminated != b.Eliminated {
			return !a.Eliminated
		}
		if a.LivesRemaining != b.LivesRemaining {
			return a.LivesRemaining > b.LivesRemaining
		}
		if wa, wb := eliminatedWeekOrZero(a), eliminatedWeekOrZero(b); wa != wb {
			return wa > wb
		}
		return a.MemberID < b.MemberID
	})

	out := make([]Standing, 0, len(items))
	for i, m := range items {
		out = append(out, Standing{
			Rank:           i + 1,
			MemberID:       m.MemberID,
			LivesRemaining: m.LivesRemaining,
			Eliminated:     m.Eliminated,
			EliminatedWeek: m.EliminatedWeek,
		})
	}
	return out, nil
}

func eliminatedWeekOrZero(m membership.Membership) int {
	if m.EliminatedWeek == nil {
		return 0
	}
	return *m.EliminatedWeek
}
