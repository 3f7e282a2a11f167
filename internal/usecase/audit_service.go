package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/adjustment"
	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/league"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
	"github.com/riskibarqy/survivor-league/internal/domain/survivor"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// ReportArchiver stores a JSON document and returns where it was written.
type ReportArchiver interface {
	Archive(ctx context.Context, key string, document any) (location string, err error)
}

type AuditConfig struct {
	DefaultStartingLives int
	MaxWorkers           int
}

type AuditInput struct {
	LeagueID string
	// MemberID narrows the audit to one member when set.
	MemberID string
}

type MemberState struct {
	LivesRemaining int  `json:"lives_remaining"`
	Eliminated     bool `json:"eliminated"`
	EliminatedWeek *int `json:"eliminated_week,omitempty"`
}

func stateOf(m membership.Membership) MemberState {
	return MemberState{LivesRemaining: m.LivesRemaining, Eliminated: m.Eliminated, EliminatedWeek: m.EliminatedWeek}
}

// Discrepancy is a member whose stored standing differs from the one implied
// by pick history and game results.
type Discrepancy struct {
	MemberID      string          `json:"member_id"`
	StartingLives int             `json:"starting_lives"`
	Expected      MemberState     `json:"expected"`
	Actual        MemberState     `json:"actual"`
	Fields        []string        `json:"fields"`
	Losses        []survivor.Loss `json:"losses"`
}

type Orphan struct {
	MemberID string `json:"member_id"`
	PickID   string `json:"pick_id"`
	Week     int    `json:"week"`
	Reason   string `json:"reason"`
}

type AuditReport struct {
	LeagueID       string        `json:"league_id"`
	Season         int           `json:"season"`
	GeneratedAt    time.Time     `json:"generated_at"`
	MembersChecked int           `json:"members_checked"`
	SettledWeeks   []int         `json:"settled_weeks"`
	Discrepancies  []Discrepancy `json:"discrepancies"`
	Orphans        []Orphan      `json:"orphans"`
}

func (r AuditReport) Summary() map[string]any {
	return map[string]any{
		"members_checked": r.MembersChecked,
		"settled_weeks":   len(r.SettledWeeks),
		"discrepancies":   len(r.Discrepancies),
		"orphans":         len(r.Orphans),
	}
}

type CorrectionInput struct {
	LeagueID string
	// MemberIDs limits the write-back; empty means every discrepancy.
	MemberIDs []string
	Confirm   bool
}

type CorrectionResult struct {
	LeagueID        string        `json:"league_id"`
	ArchiveLocation string        `json:"archive_location,omitempty"`
	Applied         []string      `json:"applied"`
	Stale           []string      `json:"stale"`
	Failed          []ItemFailure `json:"failed"`
	Report          AuditReport   `json:"report"`
}

func (r CorrectionResult) Summary() map[string]any {
	return map[string]any{
		"applied":          len(r.Applied),
		"stale":            len(r.Stale),
		"failed":           len(r.Failed),
		"archive_location": r.ArchiveLocation,
	}
}

// AuditService recomputes every member's standing from scratch and reports
// where stored state has drifted. It only writes through ApplyCorrections.
type AuditService struct {
	leagueRepo     league.Repository
	gameRepo       game.Repository
	pickRepo       pick.Repository
	membershipRepo membership.Repository
	adjustmentRepo adjustment.Repository
	archiver       ReportArchiver
	cfg            AuditConfig
	logger         *logging.Logger
	now            func() time.Time
}

func NewAuditService(
	leagueRepo league.Repository,
	gameRepo game.Repository,
	pickRepo pick.Repository,
	membershipRepo membership.Repository,
	adjustmentRepo adjustment.Repository,
	archiver ReportArchiver,
	cfg AuditConfig,
	logger *logging.Logger,
) *AuditService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DefaultStartingLives <= 0 {
		cfg.DefaultStartingLives = membership.DefaultStartingLives
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}

	return &AuditService{
		leagueRepo:     leagueRepo,
		gameRepo:       gameRepo,
		pickRepo:       pickRepo,
		membershipRepo: membershipRepo,
		adjustmentRepo: adjustmentRepo,
		archiver:       archiver,
		cfg:            cfg,
		logger:         logger.Named("audit"),
		now:            time.Now,
	}
}

type auditSnapshot struct {
	league      league.League
	games       []game.Game
	picks       []pick.Pick
	memberships []membership.Membership
	adjustments []adjustment.Adjustment
}

func (s *AuditService) AuditLeague(ctx context.Context, input AuditInput) (AuditReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuditService.AuditLeague")
	defer span.End()

	leagueID := strings.TrimSpace(input.LeagueID)
	if leagueID == "" {
		return AuditReport{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	memberID := strings.TrimSpace(input.MemberID)
	span.SetAttributes(attribute.String("league.id", leagueID))

	snap, err := s.load(ctx, leagueID)
	if err != nil {
		return AuditReport{}, err
	}

	memberships := snap.memberships
	if memberID != "" {
		memberships = nil
		for _, m := range snap.memberships {
			if m.MemberID == memberID {
				memberships = append(memberships, m)
			}
		}
		if len(memberships) == 0 {
			return AuditReport{}, fmt.Errorf("%w: league=%s member=%s", ErrMembershipNotFound, leagueID, memberID)
		}
	}

	report := s.audit(ctx, snap, memberships, memberID)
	s.logger.InfoContext(ctx, "league audited",
		"league_id", leagueID,
		"members_checked", report.MembersChecked,
		"discrepancies", len(report.Discrepancies),
		"orphans", len(report.Orphans),
	)
	return report, nil
}

func (s *AuditService) load(ctx context.Context, leagueID string) (auditSnapshot, error) {
	lg, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return auditSnapshot{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return auditSnapshot{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	snap := auditSnapshot{league: lg}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		snap.games, err = s.gameRepo.ListBySeason(groupCtx, lg.Season)
		if err != nil {
			return fmt.Errorf("list games season=%d: %w", lg.Season, err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		snap.picks, err = s.pickRepo.ListByLeague(groupCtx, leagueID)
		if err != nil {
			return fmt.Errorf("list picks: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		snap.memberships, err = s.membershipRepo.ListByLeague(groupCtx, leagueID)
		if err != nil {
			return fmt.Errorf("list memberships: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		if s.adjustmentRepo == nil {
			return nil
		}
		var err error
		snap.adjustments, err = s.adjustmentRepo.ListByLeague(groupCtx, leagueID)
		if err != nil {
			return fmt.Errorf("list adjustments: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return auditSnapshot{}, err
	}
	return snap, nil
}

func (s *AuditService) audit(ctx context.Context, snap auditSnapshot, memberships []membership.Membership, onlyMember string) AuditReport {
	firstWeek := snap.league.FirstWeek()

	gamesByID := make(map[string]game.Game, len(snap.games))
	gamesByWeek := make(map[int][]game.Game)
	for _, g := range snap.games {
		gamesByID[g.ID] = g
		gamesByWeek[g.Week] = append(gamesByWeek[g.Week], g)
	}
	finalWeeks := make([]int, 0, len(gamesByWeek))
	for week, items := range gamesByWeek {
		if week >= firstWeek && game.WeekFinal(items) {
			finalWeeks = append(finalWeeks, week)
		}
	}
	sort.Ints(finalWeeks)

	known := make(map[string]struct{}, len(snap.memberships))
	for _, m := range snap.memberships {
		known[m.MemberID] = struct{}{}
	}
	picksByMember := make(map[string][]pick.Pick)
	orphans := make([]Orphan, 0)
	for _, p := range snap.picks {
		if onlyMember != "" && p.MemberID != onlyMember {
			continue
		}
		if _, ok := known[p.MemberID]; !ok {
			orphans = append(orphans, Orphan{MemberID: p.MemberID, PickID: p.ID, Week: p.Week, Reason: FailureMembershipNotFound})
			s.logger.ErrorContext(ctx, "pick has no membership",
				"league_id", snap.league.ID, "member_id", p.MemberID, "pick_id", p.ID)
			continue
		}
		if _, ok := gamesByID[p.GameID]; !ok {
			orphans = append(orphans, Orphan{MemberID: p.MemberID, PickID: p.ID, Week: p.Week, Reason: FailureGameNotFound})
		}
		picksByMember[p.MemberID] = append(picksByMember[p.MemberID], p)
	}

	deltas := adjustment.SumByMember(snap.adjustments)
	baseLives := snap.league.Lives(s.cfg.DefaultStartingLives)

	workers := pool.NewWithResults[*Discrepancy]().WithMaxGoroutines(s.cfg.MaxWorkers)
	for _, m := range memberships {
		m := m
		workers.Go(func() *Discrepancy {
			outcome := survivor.Replay(survivor.History{
				StartingLives: baseLives + deltas[m.MemberID],
				FirstWeek:     firstWeek,
				FinalWeeks:    finalWeeks,
				Picks:         picksByMember[m.MemberID],
				Games:         gamesByID,
			})
			return compareStanding(m, outcome)
		})
	}

	discrepancies := make([]Discrepancy, 0)
	for _, d := range workers.Wait() {
		if d != nil {
			discrepancies = append(discrepancies, *d)
		}
	}
	sort.Slice(discrepancies, func(i, j int) bool { return discrepancies[i].MemberID < discrepancies[j].MemberID })
	sort.SliceStable(orphans, func(i, j int) bool {
		if orphans[i].MemberID != orphans[j].MemberID {
			return orphans[i].MemberID < orphans[j].MemberID
		}
		return orphans[i].Week < orphans[j].Week
	})

	return AuditReport{
		LeagueID:       snap.league.ID,
		Season:         snap.league.Season,
		GeneratedAt:    s.now().UTC(),
		MembersChecked: len(memberships),
		SettledWeeks:   finalWeeks,
		Discrepancies:  discrepancies,
		Orphans:        orphans,
	}
}

func compareStanding(m membership.Membership, outcome survivor.Outcome) *Discrepancy {
	expected := m.WithState(outcome.LivesRemaining, outcome.Eliminated, outcome.EliminatedWeek)
	if membership.SameState(m, expected) {
		return nil
	}

	fields := make([]string, 0, 3)
	if m.LivesRemaining != expected.LivesRemaining {
		fields = append(fields, "lives_remaining")
	}
	if m.Eliminated != expected.Eliminated {
		fields = append(fields, "eliminated")
	}
	if !sameWeek(m.EliminatedWeek, expected.EliminatedWeek) {
		fields = append(fields, "eliminated_week")
	}

	return &Discrepancy{
		MemberID:      m.MemberID,
		StartingLives: outcome.StartingLives,
		Expected:      stateOf(expected),
		Actual:        stateOf(m),
		Fields:        fields,
		Losses:        outcome.Losses,
	}
}

func sameWeek(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ApplyCorrections re-runs the audit, archives the report, then overwrites
// each selected member's stored standing with the expected one. A member whose
// row changed since the audit is reported as stale and left alone.
func (s *AuditService) ApplyCorrections(ctx context.Context, input CorrectionInput) (CorrectionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuditService.ApplyCorrections")
	defer span.End()

	if !input.Confirm {
		return CorrectionResult{}, fmt.Errorf("%w: corrective write-back must be confirmed", ErrConfirmationRequired)
	}

	report, err := s.AuditLeague(ctx, AuditInput{LeagueID: input.LeagueID})
	if err != nil {
		return CorrectionResult{}, err
	}

	result := CorrectionResult{
		LeagueID: report.LeagueID,
		Applied:  []string{},
		Stale:    []string{},
		Failed:   []ItemFailure{},
		Report:   report,
	}

	selected := make(map[string]struct{}, len(input.MemberIDs))
	for _, id := range input.MemberIDs {
		if id = strings.TrimSpace(id); id != "" {
			selected[id] = struct{}{}
		}
	}
	targets := make([]Discrepancy, 0, len(report.Discrepancies))
	for _, d := range report.Discrepancies {
		if len(selected) > 0 {
			if _, ok := selected[d.MemberID]; !ok {
				continue
			}
		}
		targets = append(targets, d)
	}
	if len(targets) == 0 {
		return result, nil
	}

	if s.archiver != nil {
		key := report.LeagueID + "/" + report.GeneratedAt.Format("20060102T150405Z") + ".json"
		location, err := s.archiver.Archive(ctx, key, report)
		if err != nil {
			return CorrectionResult{}, fmt.Errorf("%w: archive audit report: %v", ErrDependencyUnavailable, err)
		}
		result.ArchiveLocation = location
	}

	for _, d := range targets {
		actual := membership.Membership{MemberID: d.MemberID, LeagueID: report.LeagueID}.
			WithState(d.Actual.LivesRemaining, d.Actual.Eliminated, d.Actual.EliminatedWeek)
		next := actual.WithState(d.Expected.LivesRemaining, d.Expected.Eliminated, d.Expected.EliminatedWeek)
		next.UpdatedAt = s.now().UTC()

		swapped, err := s.membershipRepo.CompareAndSwap(ctx, actual, next)
		switch {
		case err != nil:
			result.Failed = append(result.Failed, ItemFailure{MemberID: d.MemberID, Reason: FailureMembershipWriteFailed, Error: err.Error()})
			s.logger.WarnContext(ctx, "apply correction failed", "league_id", report.LeagueID, "member_id", d.MemberID, "error", err)
		case !swapped:
			result.Stale = append(result.Stale, d.MemberID)
		default:
			result.Applied = append(result.Applied, d.MemberID)
			s.logger.InfoContext(ctx, "membership corrected",
				"league_id", report.LeagueID,
				"member_id", d.MemberID,
				"fields", d.Fields,
				"lives_before", d.Actual.LivesRemaining,
				"lives_after", d.Expected.LivesRemaining,
			)
		}
	}

	return result, nil
}
