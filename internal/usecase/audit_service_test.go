package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
	"github.com/riskibarqy/survivor-league/internal/domain/survivor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_AuditLeague_MatchesSettledState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newSurvivorFixture(testLeague(),
		[]game.Game{
			finalGame("w1-kc-bal", 1, "KC", 27, "BAL", 20),
			finalGame("w2-atl-pit", 2, "ATL", 10, "PIT", 18),
			finalGame("w3-dal-nyg", 3, "DAL", 20, "NYG", 20),
		},
		[]pick.Pick{
			newPick("ana", 1, "w1-kc-bal", "KC"),
			newPick("ana", 2, "w2-atl-pit", "PIT"),
			newPick("ana", 3, "w3-dal-nyg", "DAL"),
			newPick("ben", 1, "w1-kc-bal", "BAL"),
			newPick("ben", 2, "w2-atl-pit", "ATL"),
		},
		[]membership.Membership{alive("ana", 2), alive("ben", 2)},
	)

	settle := f.settlement()
	for week := 1; week <= 3; week++ {
		_, err := settle.SettleWeek(ctx, testLeagueID, week)
		require.NoError(t, err)
		_, err = settle.ApplyMissingPickPenalties(ctx, MissingPickInput{LeagueID: testLeagueID, Week: week})
		require.NoError(t, err)
	}

	report, err := f.audit(nil).AuditLeague(ctx, AuditInput{LeagueID: testLeagueID})
	require.NoError(t, err)
	assert.Equal(t, 2, report.MembersChecked)
	assert.Equal(t, []int{1, 2, 3}, report.SettledWeeks)
	assert.Empty(t, report.Discrepancies, "replay must agree with incremental settlement")
	assert.Empty(t, report.Orphans)

	assert.Equal(t, 1, f.member("ana").LivesRemaining)
	ben := f.member("ben")
	assert.True(t, ben.Eliminated)
	assert.Equal(t, weekPtr(2), ben.EliminatedWeek)
}

func TestAuditService_AuditLeague_DetectsDrift(t *testing.T) {
	t.Parallel()

	f := newSurvivorFixture(testLeague(),
		[]game.Game{
			finalGame("w1-kc-bal", 1, "KC", 27, "BAL", 20),
			finalGame("w2-atl-pit", 2, "ATL", 10, "PIT", 18),
			finalGame("w3-dal-nyg", 3, "DAL", 20, "NYG", 20),
		},
		[]pick.Pick{
			newPick("ana", 1, "w1-kc-bal", "BAL"),
			newPick("ana", 2, "w2-atl-pit", "PIT"),
			newPick("ana", 3, "w3-dal-nyg", "NYG"),
		},
		[]membership.Membership{alive("ana", 2)},
	)

	report, err := f.audit(nil).AuditLeague(context.Background(), AuditInput{LeagueID: testLeagueID})
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 1)

	d := report.Discrepancies[0]
	assert.Equal(t, "ana", d.MemberID)
	assert.Equal(t, 2, d.StartingLives)
	assert.Equal(t, MemberState{LivesRemaining: 0, Eliminated: true, EliminatedWeek: weekPtr(3)}, d.Expected)
	assert.Equal(t, MemberState{LivesRemaining: 2}, d.Actual)
	assert.Equal(t, []string{"lives_remaining", "eliminated", "eliminated_week"}, d.Fields)
	require.Len(t, d.Losses, 2)
	assert.Equal(t, survivor.LossIncorrectPick, d.Losses[0].Reason)
	assert.Equal(t, survivor.LossTie, d.Losses[1].Reason)
}

func TestAuditService_AuditLeague_MissingPicksEliminate(t *testing.T) {
	t.Parallel()

	games := make([]game.Game, 0, 9)
	picks := make([]pick.Pick, 0, 7)
	for week := 1; week <= 9; week++ {
		home, away := fmt.Sprintf("H%d", week), fmt.Sprintf("A%d", week)
		id := fmt.Sprintf("w%d", week)
		games = append(games, finalGame(id, week, home, 24, away, 10))
		if week <= 7 {
			picks = append(picks, newPick("ana", week, id, home))
		}
	}
	f := newSurvivorFixture(testLeague(), games, picks, []membership.Membership{alive("ana", 2)})

	report, err := f.audit(nil).AuditLeague(context.Background(), AuditInput{LeagueID: testLeagueID})
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 1)

	d := report.Discrepancies[0]
	assert.True(t, d.Expected.Eliminated)
	assert.Equal(t, weekPtr(9), d.Expected.EliminatedWeek)
	require.Len(t, d.Losses, 2)
	assert.Equal(t, survivor.LossMissingPick, d.Losses[0].Reason)
	assert.Equal(t, 8, d.Losses[0].Week)
}

func TestAuditService_AuditLeague_IgnoresPicksAfterElimination(t *testing.T) {
	t.Parallel()

	f := newSurvivorFixture(testLeague(),
		[]game.Game{
			finalGame("w1-kc-bal", 1, "KC", 27, "BAL", 20),
			finalGame("w2-atl-pit", 2, "ATL", 10, "PIT", 18),
			finalGame("w3-dal-nyg", 3, "DAL", 13, "NYG", 20),
		},
		[]pick.Pick{
			newPick("ben", 1, "w1-kc-bal", "BAL"),
			newPick("ben", 2, "w2-atl-pit", "ATL"),
			newPick("ben", 3, "w3-dal-nyg", "DAL"),
		},
		[]membership.Membership{
			{MemberID: "ben", LeagueID: testLeagueID, LivesRemaining: 0, Eliminated: true, EliminatedWeek: weekPtr(2)},
		},
	)

	report, err := f.audit(nil).AuditLeague(context.Background(), AuditInput{LeagueID: testLeagueID})
	require.NoError(t, err)
	assert.Empty(t, report.Discrepancies)
}

func TestAuditService_AuditLeague_FoldsAdjustmentsIntoStartingLives(t *testing.T) {
	t.Parallel()

	f := newSurvivorFixture(testLeague(),
		[]game.Game{finalGame("w1-kc-bal", 1, "KC", 27, "BAL", 20)},
		[]pick.Pick{
			newPick("ben", 1, "w1-kc-bal", "BAL"),
			newPick("cai", 1, "w1-kc-bal", "KC"),
		},
		[]membership.Membership{alive("ben", 1), alive("cai", 2)},
	)
	f.addAdjustment("ben", 1)
	f.addAdjustment("cai", -2)

	report, err := f.audit(nil).AuditLeague(context.Background(), AuditInput{LeagueID: testLeagueID})
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 2)

	ben := report.Discrepancies[0]
	assert.Equal(t, "ben", ben.MemberID)
	assert.Equal(t, 3, ben.StartingLives)
	assert.Equal(t, 2, ben.Expected.LivesRemaining)

	cai := report.Discrepancies[1]
	assert.Equal(t, "cai", cai.MemberID)
	assert.True(t, cai.Expected.Eliminated)
	assert.Equal(t, weekPtr(1), cai.Expected.EliminatedWeek)
	assert.Empty(t, cai.Losses)
}

func TestAuditService_AuditLeague_ReportsOrphans(t *testing.T) {
	t.Parallel()

	f := newSurvivorFixture(testLeague(),
		[]game.Game{finalGame("w1-kc-bal", 1, "KC", 27, "BAL", 20)},
		[]pick.Pick{
			newPick("ana", 1, "w1-kc-bal", "KC"),
			newPick("ana", 2, "w2-missing", "NE"),
			newPick("ghost", 1, "w1-kc-bal", "KC"),
		},
		[]membership.Membership{alive("ana", 2)},
	)

	report, err := f.audit(nil).AuditLeague(context.Background(), AuditInput{LeagueID: testLeagueID})
	require.NoError(t, err)
	require.Len(t, report.Orphans, 2)
	assert.Equal(t, Orphan{MemberID: "ana", PickID: "pick-ana-w2-missing", Week: 2, Reason: FailureGameNotFound}, report.Orphans[0])
	assert.Equal(t, Orphan{MemberID: "ghost", PickID: "pick-ghost-w1-kc-bal", Week: 1, Reason: FailureMembershipNotFound}, report.Orphans[1])
	assert.Empty(t, report.Discrepancies)
}

func TestAuditService_AuditLeague_SingleMember(t *testing.T) {
	t.Parallel()

	f := newSurvivorFixture(testLeague(),
		[]game.Game{finalGame("w1-kc-bal", 1, "KC", 27, "BAL", 20)},
		[]pick.Pick{newPick("ana", 1, "w1-kc-bal", "BAL"), newPick("ben", 1, "w1-kc-bal", "BAL")},
		[]membership.Membership{alive("ana", 2), alive("ben", 2)},
	)
	svc := f.audit(nil)

	report, err := svc.AuditLeague(context.Background(), AuditInput{LeagueID: testLeagueID, MemberID: "ben"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.MembersChecked)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, "ben", report.Discrepancies[0].MemberID)

	_, err = svc.AuditLeague(context.Background(), AuditInput{LeagueID: testLeagueID, MemberID: "nobody"})
	assert.True(t, errors.Is(err, ErrMembershipNotFound))

	_, err = svc.AuditLeague(context.Background(), AuditInput{LeagueID: "missing"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

type fakeArchiver struct {
	mu   sync.Mutex
	keys []string
	docs []any
	err  error
}

func (a *fakeArchiver) Archive(_ context.Context, key string, document any) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.keys = append(a.keys, key)
	a.docs = append(a.docs, document)
	return "mem://" + key, nil
}

// staleMembershipRepository loses every swap for the listed members.
type staleMembershipRepository struct {
	membership.Repository
	stale map[string]bool
}

func (r staleMembershipRepository) CompareAndSwap(ctx context.Context, expected, next membership.Membership) (bool, error) {
	if r.stale[expected.MemberID] {
		return false, nil
	}
	return r.Repository.CompareAndSwap(ctx, expected, next)
}

func driftFixture() *survivorFixture {
	return newSurvivorFixture(testLeague(),
		[]game.Game{finalGame("w1-kc-bal", 1, "KC", 27, "BAL", 20)},
		[]pick.Pick{
			newPick("ana", 1, "w1-kc-bal", "BAL"),
			newPick("ben", 1, "w1-kc-bal", "BAL"),
			newPick("cai", 1, "w1-kc-bal", "KC"),
		},
		[]membership.Membership{alive("ana", 2), alive("ben", 2), alive("cai", 2)},
	)
}

func TestAuditService_ApplyCorrections_RequiresConfirmation(t *testing.T) {
	t.Parallel()

	f := driftFixture()
	archiver := &fakeArchiver{}

	_, err := f.audit(archiver).ApplyCorrections(context.Background(), CorrectionInput{LeagueID: testLeagueID})
	assert.True(t, errors.Is(err, ErrConfirmationRequired))
	assert.Equal(t, 2, f.member("ana").LivesRemaining)
	assert.Empty(t, archiver.keys)
}

func TestAuditService_ApplyCorrections_ArchivesThenWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := driftFixture()
	archiver := &fakeArchiver{}
	svc := f.audit(archiver)
	svc.now = func() time.Time { return time.Date(2025, 10, 1, 12, 30, 0, 0, time.UTC) }

	result, err := svc.ApplyCorrections(ctx, CorrectionInput{LeagueID: testLeagueID, Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "ben"}, result.Applied)
	assert.Empty(t, result.Stale)
	assert.Empty(t, result.Failed)
	assert.Equal(t, "mem://nfl-test/20251001T123000Z.json", result.ArchiveLocation)
	require.Len(t, archiver.docs, 1)
	assert.IsType(t, AuditReport{}, archiver.docs[0])

	assert.Equal(t, 1, f.member("ana").LivesRemaining)
	assert.Equal(t, 1, f.member("ben").LivesRemaining)
	assert.Equal(t, 2, f.member("cai").LivesRemaining)

	after, err := svc.AuditLeague(ctx, AuditInput{LeagueID: testLeagueID})
	require.NoError(t, err)
	assert.Empty(t, after.Discrepancies)
}

func TestAuditService_ApplyCorrections_SelectedMembersAndStaleRows(t *testing.T) {
	t.Parallel()

	f := driftFixture()
	svc := NewAuditService(f.leagues, f.games, f.picks,
		staleMembershipRepository{Repository: f.memberships, stale: map[string]bool{"ben": true}},
		f.adjustments, nil, AuditConfig{MaxWorkers: 2}, nil)

	result, err := svc.ApplyCorrections(context.Background(), CorrectionInput{
		LeagueID:  testLeagueID,
		MemberIDs: []string{"ben", " "},
		Confirm:   true,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
	assert.Equal(t, []string{"ben"}, result.Stale)
	assert.Empty(t, result.ArchiveLocation)
	assert.Equal(t, 2, f.member("ana").LivesRemaining, "unselected members are left alone")
	assert.Equal(t, 2, f.member("ben").LivesRemaining)
}

func TestAuditService_ApplyCorrections_ArchiveFailureBlocksWrites(t *testing.T) {
	t.Parallel()

	f := driftFixture()
	archiver := &fakeArchiver{err: errors.New("bucket unavailable")}

	_, err := f.audit(archiver).ApplyCorrections(context.Background(), CorrectionInput{LeagueID: testLeagueID, Confirm: true})
	assert.True(t, errors.Is(err, ErrDependencyUnavailable))
	assert.Equal(t, 2, f.member("ana").LivesRemaining)
}
