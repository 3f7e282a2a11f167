package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/survivor-league/internal/domain/adjustment"
	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
	"github.com/riskibarqy/survivor-league/internal/infrastructure/repository/memory"
	gamemock "github.com/riskibarqy/survivor-league/internal/mocks/domain/game"
	leaguemock "github.com/riskibarqy/survivor-league/internal/mocks/domain/league"
	membershipmock "github.com/riskibarqy/survivor-league/internal/mocks/domain/membership"
	pickmock "github.com/riskibarqy/survivor-league/internal/mocks/domain/pick"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSettlementService_SettleWeek_RevertsPickWhenMembershipWriteFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := leaguemock.NewRepository(t)
	gameRepo := gamemock.NewRepository(t)
	pickRepo := pickmock.NewRepository(t)
	membershipRepo := membershipmock.NewRepository(t)

	g := finalGame("w1-atl-pit", 1, "ATL", 10, "PIT", 18)
	p := newPick("ben", 1, g.ID, "ATL")
	ben := alive("ben", 2)
	writeErr := errors.New("connection reset")

	leagueRepo.On("GetByID", mock.Anything, testLeagueID).Return(testLeague(), true, nil).Once()
	gameRepo.On("ListBySeasonWeek", mock.Anything, testSeason, 1).Return([]game.Game{g}, nil).Once()
	pickRepo.On("ListByLeagueWeek", mock.Anything, testLeagueID, 1).Return([]pick.Pick{p}, nil).Once()
	membershipRepo.On("ListByLeague", mock.Anything, testLeagueID).Return([]membership.Membership{ben}, nil).Once()

	isFalse := mock.MatchedBy(func(v *bool) bool { return v != nil && !*v })
	isUnknown := mock.MatchedBy(func(v *bool) bool { return v == nil })
	pickRepo.On("SetCorrectness", mock.Anything, p.ID, isUnknown, isFalse).Return(true, nil).Once()
	pickRepo.On("SetCorrectness", mock.Anything, p.ID, isFalse, isUnknown).Return(true, nil).Once()

	settled := p
	settled.IsCorrect = pick.BoolPtr(false)
	membershipRepo.On("Get", mock.Anything, testLeagueID, "ben").Return(ben, true, nil).Once()
	pickRepo.On("ListByMember", mock.Anything, testLeagueID, "ben").Return([]pick.Pick{settled}, nil).Once()
	membershipRepo.On("CompareAndSwap", mock.Anything, ben, mock.MatchedBy(func(next membership.Membership) bool {
		return next.LivesRemaining == 1
	})).Return(false, writeErr).Once()

	svc := NewSettlementService(leagueRepo, gameRepo, pickRepo, membershipRepo, memory.NewPenaltyRepository(), nil, nil,
		SettlementConfig{MaxWorkers: 1, CASRetries: 3}, logging.NewNop())

	report, err := svc.SettleWeek(ctx, testLeagueID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Losses)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, FailureMembershipWriteFailed, report.Failures[0].Reason)
	assert.Equal(t, p.ID, report.Failures[0].PickID)
}

func TestSettlementService_SettleWeek_RetriesLostMembershipSwap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := leaguemock.NewRepository(t)
	gameRepo := gamemock.NewRepository(t)
	pickRepo := pickmock.NewRepository(t)
	membershipRepo := membershipmock.NewRepository(t)

	g := finalGame("w1-atl-pit", 1, "ATL", 10, "PIT", 18)
	p := newPick("ben", 1, g.ID, "ATL")
	settled := p
	settled.IsCorrect = pick.BoolPtr(false)
	// A commissioner takes a life between the read and the write.
	stale := alive("ben", 2)
	fresh := alive("ben", 1)
	adjustments := memory.NewAdjustmentRepository([]adjustment.Adjustment{
		{ID: "adj-ben", LeagueID: testLeagueID, MemberID: "ben", Delta: -1},
	})

	leagueRepo.On("GetByID", mock.Anything, testLeagueID).Return(testLeague(), true, nil).Once()
	gameRepo.On("ListBySeasonWeek", mock.Anything, testSeason, 1).Return([]game.Game{g}, nil).Once()
	pickRepo.On("ListByLeagueWeek", mock.Anything, testLeagueID, 1).Return([]pick.Pick{p}, nil).Once()
	pickRepo.On("SetCorrectness", mock.Anything, p.ID, mock.Anything, mock.Anything).Return(true, nil).Once()
	membershipRepo.On("ListByLeague", mock.Anything, testLeagueID).Return([]membership.Membership{stale}, nil).Once()

	pickRepo.On("ListByMember", mock.Anything, testLeagueID, "ben").Return([]pick.Pick{settled}, nil).Times(2)
	membershipRepo.On("Get", mock.Anything, testLeagueID, "ben").Return(stale, true, nil).Once()
	membershipRepo.On("CompareAndSwap", mock.Anything, stale, mock.Anything).Return(false, nil).Once()
	membershipRepo.On("Get", mock.Anything, testLeagueID, "ben").Return(fresh, true, nil).Once()
	membershipRepo.On("CompareAndSwap", mock.Anything, fresh, mock.MatchedBy(func(next membership.Membership) bool {
		return next.Eliminated && next.EliminatedWeek != nil && *next.EliminatedWeek == 1
	})).Return(true, nil).Once()

	svc := NewSettlementService(leagueRepo, gameRepo, pickRepo, membershipRepo, memory.NewPenaltyRepository(), adjustments, nil,
		SettlementConfig{MaxWorkers: 1, CASRetries: 3}, logging.NewNop())

	report, err := svc.SettleWeek(ctx, testLeagueID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Losses)
	assert.Equal(t, 1, report.NewEliminations)
	assert.Empty(t, report.Failures)
}
