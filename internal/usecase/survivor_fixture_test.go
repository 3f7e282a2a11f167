package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/adjustment"
	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/league"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
	"github.com/riskibarqy/survivor-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
)

const (
	testLeagueID = "nfl-test"
	testSeason   = 2025
)

var testKickoff = time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)

type survivorFixture struct {
	leagues     *memory.LeagueRepository
	games       *memory.GameRepository
	picks       *memory.PickRepository
	memberships *memory.MembershipRepository
	penalties   *memory.PenaltyRepository
	adjustments *memory.AdjustmentRepository
	queue       *recordingQueue
}

func newSurvivorFixture(lg league.League, games []game.Game, picks []pick.Pick, memberships []membership.Membership) *survivorFixture {
	return &survivorFixture{
		leagues:     memory.NewLeagueRepository([]league.League{lg}),
		games:       memory.NewGameRepository(games),
		picks:       memory.NewPickRepository(picks),
		memberships: memory.NewMembershipRepository(memberships),
		penalties:   memory.NewPenaltyRepository(),
		adjustments: memory.NewAdjustmentRepository(nil),
		queue:       &recordingQueue{},
	}
}

func (f *survivorFixture) settlement() *SettlementService {
	return NewSettlementService(f.leagues, f.games, f.picks, f.memberships, f.penalties, f.adjustments, f.queue,
		SettlementConfig{DefaultStartingLives: 2, MaxWorkers: 4, CASRetries: 3, RequeueDelay: 30 * time.Minute}, logging.NewNop())
}

func (f *survivorFixture) audit(archiver ReportArchiver) *AuditService {
	return NewAuditService(f.leagues, f.games, f.picks, f.memberships, f.adjustments, archiver,
		AuditConfig{DefaultStartingLives: 2, MaxWorkers: 4}, logging.NewNop())
}

func (f *survivorFixture) member(memberID string) membership.Membership {
	m, _, _ := f.memberships.Get(context.Background(), testLeagueID, memberID)
	return m
}

func (f *survivorFixture) addAdjustment(memberID string, delta int) {
	_ = f.adjustments.Create(context.Background(), adjustment.Adjustment{
		ID:       fmt.Sprintf("adj-%s-%d", memberID, delta),
		LeagueID: testLeagueID,
		MemberID: memberID,
		Delta:    delta,
		Reason:   "commissioner ruling",
	})
}

func testLeague() league.League {
	return league.League{ID: testLeagueID, Name: "Test Survivor", Season: testSeason, StartingLives: 2, StartWeek: 1}
}

func finalGame(id string, week int, home string, homeScore int, away string, awayScore int) game.Game {
	return game.Game{
		ID:         id,
		Season:     testSeason,
		Week:       week,
		HomeTeamID: home,
		AwayTeamID: away,
		KickoffAt:  testKickoff.Add(time.Duration(week-1) * 7 * 24 * time.Hour),
		HomeScore:  &homeScore,
		AwayScore:  &awayScore,
		IsFinal:    true,
	}
}

func scheduledGame(id string, week int, home, away string) game.Game {
	return game.Game{
		ID:         id,
		Season:     testSeason,
		Week:       week,
		HomeTeamID: home,
		AwayTeamID: away,
		KickoffAt:  testKickoff.Add(time.Duration(week-1) * 7 * 24 * time.Hour),
	}
}

func newPick(memberID string, week int, gameID, teamID string) pick.Pick {
	submitted := testKickoff.Add(time.Duration(week-1)*7*24*time.Hour - 24*time.Hour)
	return pick.Pick{
		ID:          "pick-" + memberID + "-" + gameID,
		MemberID:    memberID,
		LeagueID:    testLeagueID,
		Week:        week,
		GameID:      gameID,
		TeamID:      teamID,
		SubmittedAt: submitted,
		UpdatedAt:   submitted,
	}
}

func alive(memberID string, lives int) membership.Membership {
	return membership.Membership{MemberID: memberID, LeagueID: testLeagueID, LivesRemaining: lives}
}

func weekPtr(w int) *int { return &w }

type queuedJob struct {
	path    string
	payload any
	delay   time.Duration
	dedupID string
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []queuedJob
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, path string, payload any, delay time.Duration, dedupID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queuedJob{path: path, payload: payload, delay: delay, dedupID: dedupID})
	return nil
}

func (q *recordingQueue) recorded() []queuedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queuedJob(nil), q.jobs...)
}
