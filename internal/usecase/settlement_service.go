package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/survivor-league/internal/domain/adjustment"
	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/league"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
	"github.com/riskibarqy/survivor-league/internal/domain/penalty"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
	"github.com/riskibarqy/survivor-league/internal/domain/survivor"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const settleWeekJobPath = "/v1/internal/jobs/settle-week"

const (
	FailureGameNotFound          = "game_not_found"
	FailureMembershipNotFound    = "membership_not_found"
	FailurePickWriteFailed       = "pick_write_failed"
	FailureMembershipWriteFailed = "membership_write_failed"
	FailurePenaltyClaimFailed    = "penalty_claim_failed"
)

var errMembershipConflict = errors.New("membership changed concurrently")

type SettlementConfig struct {
	DefaultStartingLives int
	MaxWorkers           int
	CASRetries           int
	RequeueDelay         time.Duration
}

// ItemFailure is one member or pick a batch could not process. The batch
// carries on with the remaining items.
type ItemFailure struct {
	MemberID string `json:"member_id"`
	PickID   string `json:"pick_id,omitempty"`
	Reason   string `json:"reason"`
	Error    string `json:"error"`
}

type SettlementReport struct {
	LeagueID        string        `json:"league_id"`
	Week            int           `json:"week"`
	Processed       int           `json:"processed"`
	Losses          int           `json:"losses"`
	Restorations    int           `json:"restorations"`
	Corrections     int           `json:"corrections"`
	Unchanged       int           `json:"unchanged"`
	Pending         int           `json:"pending"`
	NewEliminations int           `json:"new_eliminations"`
	Failures        []ItemFailure `json:"failures"`
	Skipped         bool          `json:"skipped,omitempty"`
	SkipReason      string        `json:"skip_reason,omitempty"`
	Requeued        bool          `json:"requeued,omitempty"`
}

func (r SettlementReport) Summary() map[string]any {
	return map[string]any{
		"processed":        r.Processed,
		"losses":           r.Losses,
		"restorations":     r.Restorations,
		"corrections":      r.Corrections,
		"unchanged":        r.Unchanged,
		"pending":          r.Pending,
		"new_eliminations": r.NewEliminations,
		"failures":         len(r.Failures),
		"skipped":          r.Skipped,
	}
}

type MissingPickInput struct {
	LeagueID string
	Week     int
	// Force charges missing picks before every game of the week is final.
	Force bool
}

// SettlementService turns final game results into pick verdicts, lives and
// eliminations. Every write is a compare-and-swap on the previous value, so
// re-running a week only applies transitions nobody applied yet. A member's
// lives are always rebuilt from the settled ledger rather than nudged by one.
type SettlementService struct {
	leagueRepo     league.Repository
	gameRepo       game.Repository
	pickRepo       pick.Repository
	membershipRepo membership.Repository
	penaltyRepo    penalty.Repository
	adjustmentRepo adjustment.Repository
	queue          JobQueue
	cfg            SettlementConfig
	logger         *logging.Logger
	flight         singleflight.Group
	now            func() time.Time
}

func NewSettlementService(
	leagueRepo league.Repository,
	gameRepo game.Repository,
	pickRepo pick.Repository,
	membershipRepo membership.Repository,
	penaltyRepo penalty.Repository,
	adjustmentRepo adjustment.Repository,
	queue JobQueue,
	cfg SettlementConfig,
	logger *logging.Logger,
) *SettlementService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DefaultStartingLives <= 0 {
		cfg.DefaultStartingLives = membership.DefaultStartingLives
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}
	if cfg.CASRetries <= 0 {
		cfg.CASRetries = 3
	}
	if cfg.RequeueDelay <= 0 {
		cfg.RequeueDelay = 30 * time.Minute
	}

	return &SettlementService{
		leagueRepo:     leagueRepo,
		gameRepo:       gameRepo,
		pickRepo:       pickRepo,
		membershipRepo: membershipRepo,
		penaltyRepo:    penaltyRepo,
		adjustmentRepo: adjustmentRepo,
		queue:          queue,
		cfg:            cfg,
		logger:         logger.Named("settlement"),
		now:            time.Now,
	}
}

// SettleWeek resolves every pick of the league week whose game is final.
// Concurrent calls for the same league week share one run.
func (s *SettlementService) SettleWeek(ctx context.Context, leagueID string, week int) (SettlementReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.SettleWeek")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return SettlementReport{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if week <= 0 {
		return SettlementReport{}, fmt.Errorf("%w: week must be > 0", ErrInvalidInput)
	}
	span.SetAttributes(attribute.String("league.id", leagueID), attribute.Int("league.week", week))

	key := "settle:" + leagueID + ":" + strconv.Itoa(week)
	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.settleWeek(ctx, leagueID, week)
	})
	if err != nil {
		return SettlementReport{}, err
	}
	if shared {
		s.logger.DebugContext(ctx, "settlement run shared with concurrent caller", "league_id", leagueID, "week", week)
	}

	report, _ := v.(SettlementReport)
	return report, nil
}

func (s *SettlementService) settleWeek(ctx context.Context, leagueID string, week int) (SettlementReport, error) {
	lg, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return SettlementReport{}, err
	}

	var (
		games       []game.Game
		picks       []pick.Pick
		memberships []membership.Membership
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		games, err = s.gameRepo.ListBySeasonWeek(groupCtx, lg.Season, week)
		if err != nil {
			return fmt.Errorf("list games season=%d week=%d: %w", lg.Season, week, err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		picks, err = s.pickRepo.ListByLeagueWeek(groupCtx, leagueID, week)
		if err != nil {
			return fmt.Errorf("list picks week=%d: %w", week, err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		memberships, err = s.membershipRepo.ListByLeague(groupCtx, leagueID)
		if err != nil {
			return fmt.Errorf("list memberships: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return SettlementReport{}, err
	}

	gamesByID := make(map[string]game.Game, len(games))
	for _, g := range games {
		gamesByID[g.ID] = g
	}
	members := make(map[string]struct{}, len(memberships))
	for _, m := range memberships {
		members[m.MemberID] = struct{}{}
	}

	report := SettlementReport{LeagueID: leagueID, Week: week, Failures: []ItemFailure{}}
	ready := make([]settleTask, 0, len(picks))
	for _, p := range picks {
		if _, ok := members[p.MemberID]; !ok {
			report.Processed++
			s.reportMembershipMissing(ctx, &report, p.MemberID, p.ID)
			continue
		}
		g, ok := gamesByID[p.GameID]
		if !ok {
			report.Processed++
			report.Failures = append(report.Failures, ItemFailure{
				MemberID: p.MemberID,
				PickID:   p.ID,
				Reason:   FailureGameNotFound,
				Error:    fmt.Sprintf("game=%s not scheduled in season=%d week=%d", p.GameID, lg.Season, week),
			})
			continue
		}
		if !g.Decided() {
			report.Pending++
			continue
		}
		ready = append(ready, settleTask{pick: p, game: g})
	}

	outcomes, err := s.fanOut(len(ready), func(i int) settleOutcome {
		return s.settlePick(ctx, lg, ready[i])
	})
	if err != nil {
		return SettlementReport{}, err
	}
	for _, outcome := range outcomes {
		report.add(outcome)
		if outcome.failure != nil && outcome.failure.Reason == FailureMembershipNotFound {
			s.logMembershipMissing(ctx, leagueID, outcome.failure.MemberID, outcome.failure.PickID)
		}
	}
	sortFailures(report.Failures)

	if report.Pending > 0 {
		report.Requeued = s.requeue(ctx, leagueID, week)
	}

	s.logger.InfoContext(ctx, "week settled",
		"league_id", leagueID,
		"week", week,
		"processed", report.Processed,
		"losses", report.Losses,
		"restorations", report.Restorations,
		"pending", report.Pending,
		"failures", len(report.Failures),
	)
	return report, nil
}

type settleTask struct {
	pick pick.Pick
	game game.Game
}

type settleOutcome struct {
	processed      bool
	loss           bool
	restoration    bool
	correction     bool
	unchanged      bool
	newElimination bool
	failure        *ItemFailure
}

func (r *SettlementReport) add(o settleOutcome) {
	if o.processed {
		r.Processed++
	}
	if o.loss {
		r.Losses++
	}
	if o.restoration {
		r.Restorations++
	}
	if o.correction {
		r.Corrections++
	}
	if o.unchanged {
		r.Unchanged++
	}
	if o.newElimination {
		r.NewEliminations++
	}
	if o.failure != nil {
		r.Failures = append(r.Failures, *o.failure)
	}
}

// settlePick claims the verdict transition on the pick first, then rebuilds
// the member's standing from the settled ledger. A failed membership write
// hands the claim back so the next run retries the pick.
func (s *SettlementService) settlePick(ctx context.Context, lg league.League, task settleTask) settleOutcome {
	p := task.pick
	outcome := settleOutcome{processed: true}

	stored := p.Verdict()
	fresh := survivor.Resolve(task.game, p.TeamID).Correctness()
	if pick.SameVerdict(stored, fresh) {
		outcome.unchanged = true
		return outcome
	}

	swapped, err := s.pickRepo.SetCorrectness(ctx, p.ID, stored, fresh)
	if err != nil {
		outcome.failure = &ItemFailure{MemberID: p.MemberID, PickID: p.ID, Reason: FailurePickWriteFailed, Error: err.Error()}
		return outcome
	}
	if !swapped {
		// Another run already moved this pick.
		outcome.unchanged = true
		return outcome
	}

	outcome.correction = stored != nil
	if *fresh && stored == nil {
		// unknown -> correct moves no lives.
		return outcome
	}

	before, after, err := s.rebuildMembership(ctx, lg, p.MemberID)
	if err != nil {
		if _, revertErr := s.pickRepo.SetCorrectness(ctx, p.ID, fresh, stored); revertErr != nil {
			s.logger.ErrorContext(ctx, "revert pick verdict failed",
				"league_id", lg.ID, "member_id", p.MemberID, "pick_id", p.ID, "error", revertErr)
		}
		reason := FailureMembershipWriteFailed
		if errors.Is(err, ErrMembershipNotFound) {
			reason = FailureMembershipNotFound
		}
		outcome.correction = false
		outcome.failure = &ItemFailure{MemberID: p.MemberID, PickID: p.ID, Reason: reason, Error: err.Error()}
		return outcome
	}

	outcome.record(before, after)
	return outcome
}

// ApplyMissingPickPenalties charges one life to every member with no pick for
// the week who was still alive going into it. It runs only once the whole
// slate is final unless forced, and a penalty marker per member week keeps
// re-runs from charging twice.
func (s *SettlementService) ApplyMissingPickPenalties(ctx context.Context, input MissingPickInput) (SettlementReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.ApplyMissingPickPenalties")
	defer span.End()

	leagueID := strings.TrimSpace(input.LeagueID)
	if leagueID == "" {
		return SettlementReport{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if input.Week <= 0 {
		return SettlementReport{}, fmt.Errorf("%w: week must be > 0", ErrInvalidInput)
	}
	week := input.Week

	lg, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return SettlementReport{}, err
	}

	report := SettlementReport{LeagueID: leagueID, Week: week, Failures: []ItemFailure{}}
	if week < lg.FirstWeek() {
		report.Skipped = true
		report.SkipReason = fmt.Sprintf("week %d is before league start week %d", week, lg.FirstWeek())
		return report, nil
	}

	games, err := s.gameRepo.ListBySeasonWeek(ctx, lg.Season, week)
	if err != nil {
		return SettlementReport{}, fmt.Errorf("list games season=%d week=%d: %w", lg.Season, week, err)
	}
	if !input.Force && !game.WeekFinal(games) {
		report.Skipped = true
		report.SkipReason = "week is not fully final"
		return report, nil
	}

	var (
		picks       []pick.Pick
		memberships []membership.Membership
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		picks, err = s.pickRepo.ListByLeagueWeek(groupCtx, leagueID, week)
		if err != nil {
			return fmt.Errorf("list picks week=%d: %w", week, err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		memberships, err = s.membershipRepo.ListByLeague(groupCtx, leagueID)
		if err != nil {
			return fmt.Errorf("list memberships: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return SettlementReport{}, err
	}

	picked := make(map[string]struct{}, len(picks))
	for _, p := range picks {
		picked[p.MemberID] = struct{}{}
	}
	liable := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if _, ok := picked[m.MemberID]; ok || !aliveInWeek(m, week) {
			continue
		}
		liable = append(liable, m.MemberID)
	}

	outcomes, err := s.fanOut(len(liable), func(i int) settleOutcome {
		return s.chargeMissingPick(ctx, lg, week, liable[i])
	})
	if err != nil {
		return SettlementReport{}, err
	}
	for _, outcome := range outcomes {
		report.add(outcome)
	}
	sortFailures(report.Failures)

	s.logger.InfoContext(ctx, "missing pick penalties applied",
		"league_id", leagueID,
		"week", week,
		"forced", input.Force,
		"liable", len(liable),
		"losses", report.Losses,
		"failures", len(report.Failures),
	)
	return report, nil
}

// aliveInWeek reports whether m still had lives going into week. A member
// eliminated in a later week was alive then and owes the penalty.
func aliveInWeek(m membership.Membership, week int) bool {
	if m.Alive() {
		return true
	}
	return m.EliminatedWeek != nil && *m.EliminatedWeek > week
}

func (s *SettlementService) chargeMissingPick(ctx context.Context, lg league.League, week int, memberID string) settleOutcome {
	outcome := settleOutcome{processed: true}

	claimed, err := s.penaltyRepo.Claim(ctx, penalty.Penalty{
		LeagueID:  lg.ID,
		MemberID:  memberID,
		Week:      week,
		AppliedAt: s.now().UTC(),
	})
	if err != nil {
		outcome.failure = &ItemFailure{MemberID: memberID, Reason: FailurePenaltyClaimFailed, Error: err.Error()}
		return outcome
	}
	if !claimed {
		outcome.unchanged = true
		return outcome
	}

	before, after, err := s.rebuildMembership(ctx, lg, memberID)
	if err != nil {
		if releaseErr := s.penaltyRepo.Release(ctx, lg.ID, memberID, week); releaseErr != nil {
			s.logger.ErrorContext(ctx, "release missing pick penalty failed",
				"league_id", lg.ID, "member_id", memberID, "week", week, "error", releaseErr)
		}
		reason := FailureMembershipWriteFailed
		if errors.Is(err, ErrMembershipNotFound) {
			reason = FailureMembershipNotFound
			s.logMembershipMissing(ctx, lg.ID, memberID, "")
		}
		outcome.failure = &ItemFailure{MemberID: memberID, Reason: reason, Error: err.Error()}
		return outcome
	}

	outcome.record(before, after)
	if membership.SameState(before, after) {
		outcome.unchanged = true
	}
	return outcome
}

// record classifies a membership write by its effect on lives. A write that
// only moves the elimination week counts as a correction.
func (o *settleOutcome) record(before, after membership.Membership) {
	switch {
	case after.LivesRemaining < before.LivesRemaining:
		o.loss = true
	case after.LivesRemaining > before.LivesRemaining:
		o.restoration = true
	case !membership.SameState(before, after):
		o.correction = true
	}
	o.newElimination = after.Eliminated && !before.Eliminated
}

// rebuildMembership recomputes a member's standing from stored pick
// verdicts, penalty markers and adjustments, and writes it back with
// compare-and-swap. The ledger is read after the membership on every
// attempt, so the write that wins last saw every verdict committed before it.
func (s *SettlementService) rebuildMembership(ctx context.Context, lg league.League, memberID string) (membership.Membership, membership.Membership, error) {
	for attempt := 1; attempt <= s.cfg.CASRetries; attempt++ {
		current, exists, err := s.membershipRepo.Get(ctx, lg.ID, memberID)
		if err != nil {
			return membership.Membership{}, membership.Membership{}, fmt.Errorf("get membership: %w", err)
		}
		if !exists {
			return membership.Membership{}, membership.Membership{}, fmt.Errorf("%w: league=%s member=%s", ErrMembershipNotFound, lg.ID, memberID)
		}

		ledger, err := s.loadLedger(ctx, lg, memberID)
		if err != nil {
			return membership.Membership{}, membership.Membership{}, err
		}
		standing := survivor.Settled(ledger)

		next := current.WithState(standing.LivesRemaining, standing.Eliminated, standing.EliminatedWeek)
		if membership.SameState(current, next) {
			return current, current, nil
		}
		next.UpdatedAt = s.now().UTC()

		swapped, err := s.membershipRepo.CompareAndSwap(ctx, current, next)
		if err != nil {
			return membership.Membership{}, membership.Membership{}, fmt.Errorf("write membership: %w", err)
		}
		if swapped {
			return current, next, nil
		}
		s.logger.DebugContext(ctx, "membership compare and swap lost, retrying",
			"league_id", lg.ID, "member_id", memberID, "attempt", attempt)
	}
	return membership.Membership{}, membership.Membership{}, fmt.Errorf("%w after %d attempts: member=%s", errMembershipConflict, s.cfg.CASRetries, memberID)
}

func (s *SettlementService) loadLedger(ctx context.Context, lg league.League, memberID string) (survivor.Ledger, error) {
	var (
		picks       []pick.Pick
		penalties   []penalty.Penalty
		adjustments []adjustment.Adjustment
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		picks, err = s.pickRepo.ListByMember(groupCtx, lg.ID, memberID)
		if err != nil {
			return fmt.Errorf("list member picks: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		penalties, err = s.penaltyRepo.ListByMember(groupCtx, lg.ID, memberID)
		if err != nil {
			return fmt.Errorf("list member penalties: %w", err)
		}
		return nil
	})
	if s.adjustmentRepo != nil {
		group.Go(func() error {
			var err error
			adjustments, err = s.adjustmentRepo.ListByLeague(groupCtx, lg.ID)
			if err != nil {
				return fmt.Errorf("list adjustments: %w", err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return survivor.Ledger{}, err
	}

	penaltyWeeks := make([]int, 0, len(penalties))
	for _, p := range penalties {
		penaltyWeeks = append(penaltyWeeks, p.Week)
	}
	return survivor.Ledger{
		StartingLives: lg.Lives(s.cfg.DefaultStartingLives) + adjustment.SumByMember(adjustments)[memberID],
		FirstWeek:     lg.FirstWeek(),
		Picks:         picks,
		PenaltyWeeks:  penaltyWeeks,
	}, nil
}

// fanOut runs fn for every index on a bounded ants pool and returns the
// outcomes in index order.
func (s *SettlementService) fanOut(n int, fn func(i int) settleOutcome) ([]settleOutcome, error) {
	outcomes := make([]settleOutcome, n)
	if n == 0 {
		return outcomes, nil
	}

	workers := s.cfg.MaxWorkers
	if workers > n {
		workers = n
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = fn(i)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit settlement task: %w", err)
		}
	}
	wg.Wait()
	return outcomes, nil
}

func (s *SettlementService) requeue(ctx context.Context, leagueID string, week int) bool {
	now := s.now().UTC()
	dedupID := sanitizeDedupID(fmt.Sprintf("settle-%s-%d-%s", leagueID, week, now.Format("2006010215")))
	payload := map[string]any{"leagueId": leagueID, "week": week}

	if err := s.queue.Enqueue(ctx, settleWeekJobPath, payload, s.cfg.RequeueDelay, dedupID); err != nil {
		s.logger.WarnContext(ctx, "requeue settlement failed", "league_id", leagueID, "week", week, "error", err)
		return false
	}
	return true
}

func (s *SettlementService) getLeague(ctx context.Context, leagueID string) (league.League, error) {
	lg, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return lg, nil
}

func (s *SettlementService) reportMembershipMissing(ctx context.Context, report *SettlementReport, memberID, pickID string) {
	report.Failures = append(report.Failures, ItemFailure{
		MemberID: memberID,
		PickID:   pickID,
		Reason:   FailureMembershipNotFound,
		Error:    fmt.Sprintf("%s: league=%s member=%s", ErrMembershipNotFound, report.LeagueID, memberID),
	})
	s.logMembershipMissing(ctx, report.LeagueID, memberID, pickID)
}

func (s *SettlementService) logMembershipMissing(ctx context.Context, leagueID, memberID, pickID string) {
	s.logger.ErrorContext(ctx, "pick has no membership",
		"league_id", leagueID, "member_id", memberID, "pick_id", pickID)
}

func sortFailures(items []ItemFailure) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].MemberID != items[j].MemberID {
			return items[i].MemberID < items[j].MemberID
		}
		return items[i].PickID < items[j].PickID
	})
}
